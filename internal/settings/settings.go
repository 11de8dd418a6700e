package settings

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/joshhsoj1902/achievement-tracker/internal/logger"
	"github.com/sirupsen/logrus"
)

const (
	KeySteamAPIKey    = "steam_api_key"
	KeySteamUserID    = "steam_user_id"
	KeyGameList       = "schemes"
	KeySelectedGame   = "selected_game"
	KeyWindowGeometry = "window_geometry"
)

// Store is the key-value collaborator settings are persisted in
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Contains(key string) bool
}

// Window is the last known window position and size. The tracker never interprets it.
type Window struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Settings struct {
	store Store
}

func New(store Store) *Settings {
	return &Settings{store: store}
}

func (s *Settings) getString(key string) string {
	data, ok := s.store.Get(key)
	if !ok {
		return ""
	}
	return string(data)
}

func (s *Settings) set(key string, value []byte) {
	s.store.Set(key, value, 0)
}

func (s *Settings) APIKey() string {
	return s.getString(KeySteamAPIKey)
}

func (s *Settings) UserID() string {
	return s.getString(KeySteamUserID)
}

// GameList returns the serialized game list, if one was stored
func (s *Settings) GameList() ([]byte, bool) {
	return s.store.Get(KeyGameList)
}

func (s *Settings) SetGameList(blob []byte) {
	s.set(KeyGameList, blob)
}

// SelectedGame returns the last selected app id, if any
func (s *Settings) SelectedGame() (int, bool) {
	data, ok := s.store.Get(KeySelectedGame)
	if !ok {
		return 0, false
	}

	appID, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"value": string(data),
			"error": err.Error(),
		}).Warn("Ignoring unreadable selected game")
		return 0, false
	}
	return appID, true
}

func (s *Settings) SetSelectedGame(appID int) {
	s.set(KeySelectedGame, []byte(strconv.Itoa(appID)))
}

func (s *Settings) Window() (Window, bool) {
	data, ok := s.store.Get(KeyWindowGeometry)
	if !ok {
		return Window{}, false
	}

	var w Window
	if err := json.Unmarshal(data, &w); err != nil {
		logger.Log.WithError(err).Warn("Ignoring unreadable window geometry")
		return Window{}, false
	}
	return w, true
}

func (s *Settings) SetWindow(w Window) {
	data, err := json.Marshal(w)
	if err != nil {
		return
	}
	s.set(KeyWindowGeometry, data)
}
