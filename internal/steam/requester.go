package steam

import (
	"context"

	"github.com/google/uuid"
	"github.com/joshhsoj1902/achievement-tracker/internal/logger"
	"github.com/sirupsen/logrus"
)

// DecodeMode selects what a successful response body is handed over as
type DecodeMode int

const (
	// DecodeJSON hands over the body decoded into a generic JSON value
	DecodeJSON DecodeMode = iota
	// DecodeBinary hands over the raw bytes
	DecodeBinary
)

// Poster runs callbacks on the event loop
type Poster interface {
	Post(fn func()) bool
}

// Requester issues requests off the event loop and delivers results back onto it.
// Each call is one round trip: no retries and no deduplication of identical requests.
type Requester struct {
	ctx    context.Context
	client *Client
	loop   Poster
}

func NewRequester(ctx context.Context, client *Client, loop Poster) *Requester {
	return &Requester{
		ctx:    ctx,
		client: client,
		loop:   loop,
	}
}

// Get fetches rawURL. On success onSuccess receives a []byte (DecodeBinary) or a
// decoded JSON value (DecodeJSON); on failure onError receives the error. Both are
// called on the loop with key, the caller's context value.
func (r *Requester) Get(rawURL string, onSuccess func(body any, key any), onError func(err error, key any), mode DecodeMode, key any) {
	r.dispatch(rawURL, func(ctx context.Context) (any, error) {
		body, err := r.client.Get(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if mode == DecodeBinary {
			return body, nil
		}

		var value any
		if err := decodeJSON(rawURL, body, &value); err != nil {
			return nil, err
		}
		return value, nil
	}, func(v any) {
		onSuccess(v, key)
	}, func(err error) {
		if onError != nil {
			onError(err, key)
		}
	})
}

// GameList fetches the games owned by the configured user
func (r *Requester) GameList(onSuccess func(games []OwnedGame), onError func(err error)) {
	r.dispatch(r.client.OwnedGamesURL(), func(ctx context.Context) (any, error) {
		resp, err := r.client.GetOwnedGames(ctx)
		if err != nil {
			return nil, err
		}
		return resp.Games, nil
	}, func(v any) {
		onSuccess(v.([]OwnedGame))
	}, onError)
}

// GameAchievementSchema fetches the achievement catalogue of appID
func (r *Requester) GameAchievementSchema(appID int, onSuccess func(appID int, schema GameSchema), onError func(appID int, err error)) {
	r.dispatch(r.client.SchemaForGameURL(appID), func(ctx context.Context) (any, error) {
		return r.client.GetSchemaForGame(ctx, appID)
	}, func(v any) {
		onSuccess(appID, v.(GameSchema))
	}, func(err error) {
		onError(appID, err)
	})
}

// PlayerAchievements fetches the configured player's completion flags for appID
func (r *Requester) PlayerAchievements(appID int, onSuccess func(appID int, stats PlayerStats), onError func(appID int, err error)) {
	r.dispatch(r.client.PlayerAchievementsURL(appID), func(ctx context.Context) (any, error) {
		return r.client.GetPlayerAchievements(ctx, appID)
	}, func(v any) {
		onSuccess(appID, v.(PlayerStats))
	}, func(err error) {
		onError(appID, err)
	})
}

func (r *Requester) dispatch(rawURL string, fetch func(ctx context.Context) (any, error), onSuccess func(any), onError func(error)) {
	requestID := uuid.NewString()
	log := logger.Log.WithFields(logrus.Fields{
		"request_id": requestID,
		"url":        RedactURL(rawURL),
	})
	log.Debug("Dispatching request")

	go func() {
		value, err := fetch(r.ctx)

		posted := r.loop.Post(func() {
			if err != nil {
				log.WithError(err).Warn("Request failed")
				if onError != nil {
					onError(err)
				}
				return
			}
			log.Debug("Request completed")
			onSuccess(value)
		})
		if !posted {
			log.Debug("Event loop stopped, dropping response")
		}
	}()
}
