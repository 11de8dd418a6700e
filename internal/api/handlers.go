package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/joshhsoj1902/achievement-tracker/internal/achievements"
	"github.com/joshhsoj1902/achievement-tracker/internal/library"
	"github.com/joshhsoj1902/achievement-tracker/internal/logger"
	"github.com/joshhsoj1902/achievement-tracker/internal/settings"
	"github.com/sirupsen/logrus"
)

// Loop runs fn on the event loop and waits for it
type Loop interface {
	Call(ctx context.Context, fn func()) error
}

type Library interface {
	Games() []library.Game
	Refresh(onLoaded func(), onError func(err error))
}

type View interface {
	Select(appID int)
	Snapshot() achievements.Snapshot
	Icons() *achievements.IconCache
}

type Settings interface {
	SelectedGame() (int, bool)
	Window() (settings.Window, bool)
	SetWindow(w settings.Window)
}

type Handlers struct {
	loop     Loop
	library  Library
	view     View
	settings Settings
}

func NewHandlers(loop Loop, library Library, view View, settings Settings) *Handlers {
	return &Handlers{
		loop:     loop,
		library:  library,
		view:     view,
		settings: settings,
	}
}

type gameResponse struct {
	AppID        int    `json:"app_id"`
	Name         string `json:"name"`
	SchemaCached bool   `json:"schema_cached"`
}

type selectionRequest struct {
	AppID *int `json:"app_id"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Error("Failed to write JSON response")
	}
}

func (h *Handlers) call(w http.ResponseWriter, r *http.Request, fn func()) bool {
	if err := h.loop.Call(r.Context(), fn); err != nil {
		logger.Log.WithError(err).WithField("path", r.URL.Path).Error("Event loop unavailable")
		http.Error(w, "service is shutting down", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (h *Handlers) games(w http.ResponseWriter, r *http.Request) ([]gameResponse, bool) {
	var games []library.Game
	if !h.call(w, r, func() { games = h.library.Games() }) {
		return nil, false
	}

	out := make([]gameResponse, 0, len(games))
	for _, g := range games {
		out = append(out, gameResponse{AppID: g.AppID, Name: g.Name, SchemaCached: g.HasSchema()})
	}
	return out, true
}

// HandleGames handles GET /games
func (h *Handlers) HandleGames(w http.ResponseWriter, r *http.Request) {
	if games, ok := h.games(w, r); ok {
		writeJSON(w, http.StatusOK, games)
	}
}

// HandleRefreshGames handles POST /games/refresh
func (h *Handlers) HandleRefreshGames(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := make(chan error, 1)

	if !h.call(w, r, func() {
		h.library.Refresh(func() { result <- nil }, func(err error) { result <- err })
	}) {
		return
	}

	select {
	case err := <-result:
		if err != nil {
			logger.Log.WithFields(logrus.Fields{
				"error":    err.Error(),
				"duration": time.Since(start),
			}).Error("Failed to refresh game list")
			http.Error(w, "Failed to load game list: "+err.Error(), http.StatusBadGateway)
			return
		}
	case <-r.Context().Done():
		return
	}

	logger.Log.WithField("duration", time.Since(start)).Info("Game list refreshed")
	if games, ok := h.games(w, r); ok {
		writeJSON(w, http.StatusOK, games)
	}
}

// HandleGetSelection handles GET /selection
func (h *Handlers) HandleGetSelection(w http.ResponseWriter, r *http.Request) {
	appID, ok := h.settings.SelectedGame()
	if !ok {
		appID = achievements.NoGame
	}
	writeJSON(w, http.StatusOK, map[string]int{"app_id": appID})
}

// HandleSelect handles PUT /selection
func (h *Handlers) HandleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AppID == nil {
		http.Error(w, `body must be {"app_id": <int>}`, http.StatusBadRequest)
		return
	}

	logger.Log.WithField("app_id", *req.AppID).Info("Game selected")

	var snap achievements.Snapshot
	if h.call(w, r, func() {
		h.view.Select(*req.AppID)
		snap = h.view.Snapshot()
	}) {
		writeJSON(w, http.StatusAccepted, snap)
	}
}

// HandleAchievements handles GET /achievements
func (h *Handlers) HandleAchievements(w http.ResponseWriter, r *http.Request) {
	var snap achievements.Snapshot
	if h.call(w, r, func() { snap = h.view.Snapshot() }) {
		writeJSON(w, http.StatusOK, snap)
	}
}

// HandleIcon handles GET /icons?url=. Icons not (yet) fetched get 204 so the
// caller draws its blank placeholder.
func (h *Handlers) HandleIcon(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}

	var data []byte
	var found bool
	if !h.call(w, r, func() { data, found = h.view.Icons().Get(url) }) {
		return
	}

	if !found {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "max-age=86400")
	_, _ = w.Write(data)
}

// HandleGetWindow handles GET /window
func (h *Handlers) HandleGetWindow(w http.ResponseWriter, r *http.Request) {
	window, ok := h.settings.Window()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, window)
}

// HandlePutWindow handles PUT /window
func (h *Handlers) HandlePutWindow(w http.ResponseWriter, r *http.Request) {
	var window settings.Window
	if err := json.NewDecoder(r.Body).Decode(&window); err != nil {
		http.Error(w, "invalid window geometry", http.StatusBadRequest)
		return
	}
	h.settings.SetWindow(window)
	w.WriteHeader(http.StatusNoContent)
}

// HandleRoot serves a simple front page
func (h *Handlers) HandleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(`<html>
<head><title>Achievement Tracker</title></head>
<body>
	<h1>Achievement Tracker</h1>
	<p>Uncompleted Steam achievements for the games you own</p>
	<h2>Endpoints:</h2>
	<ul>
		<li><a href="/games">GET /games</a> - Owned games</li>
		<li>POST /games/refresh - Reload owned games from Steam</li>
		<li><a href="/selection">GET /selection</a>, PUT /selection {"app_id": n} - Selected game (-1 for none)</li>
		<li><a href="/achievements">GET /achievements</a> - Uncompleted achievements of the selected game</li>
		<li>GET /icons?url= - Cached achievement icon</li>
		<li><a href="/window">GET /window</a>, PUT /window - Saved window geometry</li>
		<li><a href="/metrics">/metrics</a> - System metrics</li>
		<li><a href="/metrics/app">/metrics/app</a> - Tracker metrics</li>
	</ul>
</body>
</html>`))
}
