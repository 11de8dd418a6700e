package steam

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/joshhsoj1902/achievement-tracker/internal/logger"
	"github.com/sirupsen/logrus"
)

// Store persists small opaque blobs
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
}

// RateLimitState tracks whether Steam asked us to slow down.
// While blocked, requests fail immediately instead of being sent.
type RateLimitState struct {
	mu           sync.Mutex
	store        Store
	now          func() time.Time
	limited      bool
	blockedUntil time.Time
	consecutive  int
}

type rateLimitSnapshot struct {
	IsRateLimited bool      `json:"is_rate_limited"`
	BlockedUntil  time.Time `json:"blocked_until"`
	Consecutive   int       `json:"consecutive_429"`
}

const (
	rateLimitCacheKey = "steam:rate_limit_state"
	initialBackoff    = 1 * time.Hour
	maxBackoff        = 24 * time.Hour
	backoffMultiplier = 2
)

// NewRateLimitState creates a limiter and restores its state from store, which may be nil
func NewRateLimitState(store Store) *RateLimitState {
	rl := &RateLimitState{
		store: store,
		now:   time.Now,
	}
	rl.loadState()
	return rl
}

// CheckAndBlock reports true while a backoff period is active
func (rl *RateLimitState) CheckAndBlock() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if !rl.limited {
		return false
	}

	now := rl.now()
	if now.Before(rl.blockedUntil) {
		logger.Log.WithFields(logrus.Fields{
			"blocked_until":     rl.blockedUntil,
			"remaining_seconds": int(rl.blockedUntil.Sub(now).Seconds()),
		}).Warn("Steam API is rate limited - refusing request until backoff period expires")
		return true
	}

	rl.limited = false
	rl.consecutive = 0
	rl.saveState()

	logger.Log.Info("Steam API rate limit backoff period expired - resuming API calls")
	return false
}

// RecordRateLimited starts or extends the backoff: 1h, 2h, 4h ... capped at 24h
func (rl *RateLimitState) RecordRateLimited() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.consecutive++

	backoff := initialBackoff
	for i := 1; i < rl.consecutive && backoff < maxBackoff; i++ {
		backoff *= backoffMultiplier
	}
	if backoff > maxBackoff {
		backoff = maxBackoff
	}

	rl.limited = true
	rl.blockedUntil = rl.now().Add(backoff)

	logger.Log.WithFields(logrus.Fields{
		"consecutive_429": rl.consecutive,
		"blocked_until":   rl.blockedUntil,
		"backoff":         backoff.String(),
	}).Error("Steam API rate limit detected (429) - backing off")

	rl.saveState()
}

// RecordSuccess clears the counter unless a backoff period is still running
func (rl *RateLimitState) RecordSuccess() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.limited && rl.now().Before(rl.blockedUntil) {
		return
	}
	if !rl.limited && rl.consecutive == 0 {
		return
	}

	rl.limited = false
	rl.consecutive = 0
	rl.saveState()
}

// BlockedUntil returns the end of the current backoff, or the zero time
func (rl *RateLimitState) BlockedUntil() time.Time {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if !rl.limited {
		return time.Time{}
	}
	return rl.blockedUntil
}

func (rl *RateLimitState) loadState() {
	if rl.store == nil {
		return
	}

	data, exists := rl.store.Get(rateLimitCacheKey)
	if !exists {
		return
	}

	var state rateLimitSnapshot
	if err := json.Unmarshal(data, &state); err != nil {
		logger.Log.WithError(err).Warn("Ignoring unreadable Steam rate limit state")
		return
	}

	rl.limited = state.IsRateLimited
	rl.blockedUntil = state.BlockedUntil
	rl.consecutive = state.Consecutive

	logger.Log.WithFields(logrus.Fields{
		"is_rate_limited": rl.limited,
		"blocked_until":   rl.blockedUntil,
		"consecutive_429": rl.consecutive,
	}).Info("Loaded Steam rate limit state from store")
}

// saveState must be called with mu held
func (rl *RateLimitState) saveState() {
	if rl.store == nil {
		return
	}

	data, err := json.Marshal(rateLimitSnapshot{
		IsRateLimited: rl.limited,
		BlockedUntil:  rl.blockedUntil,
		Consecutive:   rl.consecutive,
	})
	if err != nil {
		return
	}

	ttl := 24 * time.Hour
	if rl.limited {
		if remaining := rl.blockedUntil.Sub(rl.now()); remaining > 0 {
			ttl = remaining + time.Hour
		}
	}
	rl.store.Set(rateLimitCacheKey, data, ttl)
}
