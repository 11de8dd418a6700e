package achievements

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joshhsoj1902/achievement-tracker/internal/library"
	"github.com/joshhsoj1902/achievement-tracker/internal/logger"
	"github.com/joshhsoj1902/achievement-tracker/internal/steam"
	"github.com/sirupsen/logrus"
)

// NoGame is the selection sentinel for "no game selected"
const NoGame = -1

const (
	WelcomeMessage   = "Select a game to view its achievements"
	CompletedMessage = "You've completed all achievements for this game!"
	ErrorMessage     = "Failed to load achievements! (You can try to change the game)"
)

type State int

const (
	NoSelection State = iota
	Loading
	Completed
	ShowingList
	Error
)

func (s State) String() string {
	switch s {
	case NoSelection:
		return "no_selection"
	case Loading:
		return "loading"
	case Completed:
		return "completed"
	case ShowingList:
		return "showing_list"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Entry is one uncompleted achievement as shown to the user
type Entry struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	IconURL string `json:"icon_url"`
	// IconLoaded is set once the icon bytes are in the IconCache
	IconLoaded bool `json:"icon_loaded"`
	// IconMissing means the icon could not be fetched and a blank placeholder is shown
	IconMissing bool `json:"icon_missing"`
}

type Snapshot struct {
	State   State   `json:"state"`
	AppID   int     `json:"app_id"`
	Message string  `json:"message,omitempty"`
	Enabled bool    `json:"enabled"`
	Entries []Entry `json:"entries"`
}

type Schemas interface {
	EnsureSchema(appID int, onReady func(game *library.Game), onError func(err error))
}

type Requester interface {
	PlayerAchievements(appID int, onSuccess func(appID int, stats steam.PlayerStats), onError func(appID int, err error))
	Get(rawURL string, onSuccess func(body any, key any), onError func(err error, key any), mode steam.DecodeMode, key any)
}

// SelectionStore remembers the last selected game across runs
type SelectionStore interface {
	SetSelectedGame(appID int)
}

// View tracks the achievements of the selected game that are not completed yet.
// It is owned by the event loop: every method and callback runs there.
type View struct {
	schemas   Schemas
	requester Requester
	selection SelectionStore
	icons     *IconCache

	state   State
	appID   int
	message string
	entries []Entry
	// generation identifies the current selection; responses for older ones are dropped
	generation uint64

	listeners []func(Snapshot)
}

func NewView(schemas Schemas, requester Requester, selection SelectionStore, icons *IconCache) *View {
	return &View{
		schemas:   schemas,
		requester: requester,
		selection: selection,
		icons:     icons,
		state:     NoSelection,
		appID:     NoGame,
		message:   WelcomeMessage,
	}
}

// OnChange registers fn to be called with a snapshot after every change
func (v *View) OnChange(fn func(Snapshot)) {
	v.listeners = append(v.listeners, fn)
}

func (v *View) Icons() *IconCache {
	return v.icons
}

func (v *View) Snapshot() Snapshot {
	entries := make([]Entry, len(v.entries))
	copy(entries, v.entries)
	return Snapshot{
		State:   v.state,
		AppID:   v.appID,
		Message: v.message,
		Enabled: v.state == ShowingList,
		Entries: entries,
	}
}

func (v *View) notify() {
	snap := v.Snapshot()
	for _, fn := range v.listeners {
		fn(snap)
	}
}

// Select switches to appID. NoGame, or any id below 1, clears the view.
func (v *View) Select(appID int) {
	v.generation++
	v.entries = nil
	if v.selection != nil {
		v.selection.SetSelectedGame(appID)
	}

	if appID <= 0 {
		v.state = NoSelection
		v.appID = NoGame
		v.message = WelcomeMessage
		v.notify()
		return
	}

	v.state = Loading
	v.appID = appID
	v.message = ""
	v.notify()

	gen := v.generation
	log := logger.Log.WithField("app_id", appID)

	v.schemas.EnsureSchema(appID, func(game *library.Game) {
		if !v.current(gen, appID) {
			log.Debug("Discarding schema for superseded selection")
			return
		}

		v.requester.PlayerAchievements(appID, func(appID int, stats steam.PlayerStats) {
			if !v.current(gen, appID) {
				log.Debug("Discarding achievements for superseded selection")
				return
			}
			v.handlePlayerAchievements(game, stats)
		}, func(appID int, err error) {
			if !v.current(gen, appID) {
				return
			}
			v.fail(err)
		})
	}, func(err error) {
		if !v.current(gen, appID) {
			return
		}
		v.fail(err)
	})
}

func (v *View) current(gen uint64, appID int) bool {
	return gen == v.generation && appID == v.appID
}

func (v *View) fail(err error) {
	logger.Log.WithFields(logrus.Fields{
		"app_id": v.appID,
		"error":  err.Error(),
	}).Error("Failed to load achievements")

	v.state = Error
	v.message = ErrorMessage
	v.entries = nil
	v.notify()
}

func (v *View) handlePlayerAchievements(game *library.Game, stats steam.PlayerStats) {
	if !stats.Success && stats.Error != "" {
		v.fail(fmt.Errorf("steam reported: %s", stats.Error))
		return
	}

	kept := make([]Entry, 0, len(stats.Achievements))
	for _, a := range stats.Achievements {
		if a.Achieved != 0 {
			continue
		}
		schema, ok := game.Schema[a.APIName]
		if !ok {
			logger.Log.WithFields(logrus.Fields{
				"app_id":  game.AppID,
				"apiname": a.APIName,
			}).Warn("Achievement missing from cached schema, skipping")
			continue
		}
		kept = append(kept, Entry{Key: schema.Key, Name: schema.Name, IconURL: schema.IconURL})
	}

	if len(kept) == 0 {
		v.state = Completed
		v.message = CompletedMessage
		v.entries = nil
		v.notify()
		return
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := strings.ToLower(kept[i].Name), strings.ToLower(kept[j].Name)
		if a != b {
			return a < b
		}
		return kept[i].Key < kept[j].Key
	})

	v.state = ShowingList
	v.message = ""
	v.entries = kept

	logger.Log.WithFields(logrus.Fields{
		"app_id":      game.AppID,
		"uncompleted": len(kept),
	}).Info("Showing uncompleted achievements")

	v.loadIcons()
	v.notify()
}

// loadIcons fills entries from the IconCache and requests the icons it lacks
func (v *View) loadIcons() {
	requested := make(map[string]bool)
	gen := v.generation

	for i := range v.entries {
		url := v.entries[i].IconURL
		if url == "" {
			v.entries[i].IconMissing = true
			continue
		}
		if _, ok := v.icons.Get(url); ok {
			v.entries[i].IconLoaded = true
			continue
		}
		if requested[url] {
			continue
		}
		requested[url] = true

		v.requester.Get(url, func(body any, key any) {
			url := key.(string)
			v.icons.Put(url, body.([]byte))
			if gen == v.generation {
				v.markIcon(url, true)
			}
		}, func(err error, key any) {
			logger.Log.WithError(err).Warn("Failed to load icon")
			if gen == v.generation {
				v.markIcon(key.(string), false)
			}
		}, steam.DecodeBinary, url)
	}
}

func (v *View) markIcon(url string, loaded bool) {
	for i := range v.entries {
		if v.entries[i].IconURL != url {
			continue
		}
		v.entries[i].IconLoaded = loaded
		v.entries[i].IconMissing = !loaded
	}
	v.notify()
}
