package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/joshhsoj1902/achievement-tracker/internal/logger"
	"github.com/joshhsoj1902/achievement-tracker/internal/steam"
	"github.com/sirupsen/logrus"
)

var ErrUnknownGame = errors.New("game is not in the library")

const snapshotVersion = 1

type Achievement struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	IconURL string `json:"icon_url"`
}

type Game struct {
	AppID int    `json:"app_id"`
	Name  string `json:"name"`
	// Schema is nil until the achievement catalogue has been fetched
	Schema map[string]Achievement `json:"schema"`
}

func (g *Game) HasSchema() bool {
	return g.Schema != nil
}

// Persister stores the serialized game list
type Persister interface {
	GameList() ([]byte, bool)
	SetGameList(blob []byte)
}

type Requester interface {
	GameList(onSuccess func(games []steam.OwnedGame), onError func(err error))
	GameAchievementSchema(appID int, onSuccess func(appID int, schema steam.GameSchema), onError func(appID int, err error))
}

// DecodeError is a stored game list that could not be read back
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode cached game list: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// GameList holds the owned games and every schema learned so far.
// It is owned by the event loop and must only be used from it.
type GameList struct {
	games     map[int]*Game
	requester Requester
	persister Persister
}

type snapshot struct {
	Version int     `json:"version"`
	Games   []*Game `json:"games"`
}

// Open restores the list from persister. An unreadable snapshot leaves the list empty.
func Open(requester Requester, persister Persister) *GameList {
	gl := &GameList{
		games:     make(map[int]*Game),
		requester: requester,
		persister: persister,
	}

	blob, ok := persister.GameList()
	if !ok {
		return gl
	}

	games, err := Decode(blob)
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to load game list from cache")
		return gl
	}

	gl.games = games
	logger.Log.WithField("game_count", len(games)).Info("Loaded game list from cache")
	return gl
}

// Decode reads a snapshot written by Encode
func Decode(blob []byte) (map[int]*Game, error) {
	var snap snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if snap.Version != snapshotVersion {
		return nil, &DecodeError{Err: fmt.Errorf("unsupported snapshot version %d", snap.Version)}
	}

	games := make(map[int]*Game, len(snap.Games))
	for _, g := range snap.Games {
		if g == nil {
			continue
		}
		games[g.AppID] = g
	}
	return games, nil
}

// Encode serializes games, ordered by app id so equal lists give equal blobs
func Encode(games map[int]*Game) ([]byte, error) {
	snap := snapshot{Version: snapshotVersion, Games: make([]*Game, 0, len(games))}
	for _, g := range games {
		snap.Games = append(snap.Games, g)
	}
	sort.Slice(snap.Games, func(i, j int) bool {
		return snap.Games[i].AppID < snap.Games[j].AppID
	})
	return json.Marshal(snap)
}

func (gl *GameList) persist() {
	blob, err := Encode(gl.games)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to serialize game list")
		return
	}
	gl.persister.SetGameList(blob)
}

// Len is the number of known games
func (gl *GameList) Len() int {
	return len(gl.games)
}

// Get returns the game with appID
func (gl *GameList) Get(appID int) (*Game, bool) {
	g, ok := gl.games[appID]
	return g, ok
}

// Games returns the known games sorted by name, ignoring case
func (gl *GameList) Games() []Game {
	out := make([]Game, 0, len(gl.games))
	for _, g := range gl.games {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].AppID < out[j].AppID
	})
	return out
}

// EnsureSchema calls onReady with the game once its schema is known. A cached schema
// is handed over synchronously; otherwise it is fetched once and stored before onReady.
func (gl *GameList) EnsureSchema(appID int, onReady func(game *Game), onError func(err error)) {
	game, ok := gl.games[appID]
	if !ok {
		onError(fmt.Errorf("app_id %d: %w", appID, ErrUnknownGame))
		return
	}

	if game.HasSchema() {
		recordSchemaLookup(lookupHit)
		onReady(game)
		return
	}

	recordSchemaLookup(lookupMiss)
	logger.Log.WithField("app_id", appID).Info("Fetching achievement schema")

	gl.requester.GameAchievementSchema(appID, func(appID int, schema steam.GameSchema) {
		game, ok := gl.games[appID]
		if !ok {
			// the game list was refreshed while the request was in flight
			onError(fmt.Errorf("app_id %d: %w", appID, ErrUnknownGame))
			return
		}

		game.Schema = convertSchema(schema)
		gl.persist()

		logger.Log.WithFields(logrus.Fields{
			"app_id":            appID,
			"achievement_count": len(game.Schema),
		}).Info("Cached achievement schema")
		onReady(game)
	}, func(appID int, err error) {
		logger.Log.WithFields(logrus.Fields{
			"app_id": appID,
			"error":  err.Error(),
		}).Error("Failed to load achievement schema")
		onError(err)
	})
}

// Refresh fetches the owned games and merges them in, keeping learned schemas.
// onLoaded fires once the new list is stored.
func (gl *GameList) Refresh(onLoaded func(), onError func(err error)) {
	gl.requester.GameList(func(owned []steam.OwnedGame) {
		merged := make(map[int]*Game, len(owned))
		for _, o := range owned {
			game := &Game{AppID: o.AppID, Name: o.Name}
			if existing, ok := gl.games[o.AppID]; ok {
				game.Schema = existing.Schema
			}
			merged[o.AppID] = game
		}

		gl.games = merged
		gl.persist()

		logger.Log.WithField("game_count", len(merged)).Info("Game list loaded")
		if onLoaded != nil {
			onLoaded()
		}
	}, func(err error) {
		logger.Log.WithError(err).Error("Failed to load game list")
		if onError != nil {
			onError(err)
		}
	})
}

func convertSchema(schema steam.GameSchema) map[string]Achievement {
	out := make(map[string]Achievement, len(schema.AvailableGameStats.Achievements))
	for _, a := range schema.AvailableGameStats.Achievements {
		name := a.DisplayName
		if name == "" {
			name = a.Name
		}
		out[a.Name] = Achievement{
			Key:     a.Name,
			Name:    name,
			IconURL: a.Icon,
		}
	}
	return out
}
