package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/joshhsoj1902/achievement-tracker/internal/achievements"
	"github.com/joshhsoj1902/achievement-tracker/internal/cache"
	"github.com/joshhsoj1902/achievement-tracker/internal/credentials"
	"github.com/joshhsoj1902/achievement-tracker/internal/library"
	"github.com/joshhsoj1902/achievement-tracker/internal/logger"
	"github.com/joshhsoj1902/achievement-tracker/internal/loop"
	"github.com/joshhsoj1902/achievement-tracker/internal/settings"
	"github.com/joshhsoj1902/achievement-tracker/internal/steam"
	"github.com/sirupsen/logrus"
)

const pingTimeout = 5 * time.Second

// App holds the wired components. Library and View belong to Loop and are only
// touched from functions running on it.
type App struct {
	Config    Config
	Cache     *cache.Cache
	Settings  *settings.Settings
	Loop      *loop.Loop
	Requester *steam.Requester
	Library   *library.GameList
	View      *achievements.View
}

// Bootstrap connects the store, makes sure valid credentials are stored and builds
// the game list and achievement view. prompter may be nil to never ask.
func Bootstrap(ctx context.Context, config Config, prompter settings.Prompter) (*App, error) {
	store := cache.New(config.RedisAddr, config.RedisPassword, config.RedisDB)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		store.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", config.RedisAddr, err)
	}

	app := &App{
		Config:   config,
		Cache:    store,
		Settings: settings.New(store),
		Loop:     loop.New(),
	}
	app.Loop.Start()

	rateLimit := steam.NewRateLimitState(store)

	if err := app.defineCredentials(rateLimit, prompter); err != nil {
		app.Close()
		return nil, err
	}

	client := steam.NewClient(steam.Config{
		APIKey:    app.Settings.APIKey(),
		UserID:    app.Settings.UserID(),
		Origin:    config.SteamOrigin,
		Timeout:   config.HTTPTimeout,
		RateLimit: rateLimit,
	})
	app.Requester = steam.NewRequester(app.Loop.Context(), client, app.Loop)
	app.Library = library.Open(app.Requester, app.Settings)
	app.View = achievements.NewView(app.Library, app.Requester, app.Settings, achievements.NewIconCache())

	logger.Log.WithFields(logrus.Fields{
		"origin":     client.Origin(),
		"game_count": app.Library.Len(),
	}).Info("Tracker ready")

	return app, nil
}

func (a *App) defineCredentials(rateLimit *steam.RateLimitState, prompter settings.Prompter) error {
	// Credentials are checked with a keyless client; the key travels in the check URL
	client := steam.NewClient(steam.Config{
		Origin:    a.Config.SteamOrigin,
		Timeout:   a.Config.HTTPTimeout,
		RateLimit: rateLimit,
	})
	requester := steam.NewRequester(a.Loop.Context(), client, a.Loop)

	key := credentials.NewAPIKey(client.Origin())
	err := a.Settings.DefineIfNotExists(settings.KeySteamAPIKey, a.Config.SteamKey, settings.Prompt{
		Title:     "Steam API key",
		Text:      "Enter your Steam Web API key. You can get one at " + credentials.APIKeyPage,
		InputName: key.Name(),
	}, prompter, func(value string) error {
		return credentials.Await(key, value, requester)
	})
	if err != nil {
		return err
	}

	user := credentials.NewUserID(client.Origin(), a.Settings.APIKey())
	return a.Settings.DefineIfNotExists(settings.KeySteamUserID, a.Config.SteamID, settings.Prompt{
		Title:     "Steam ID",
		Text:      "Enter your 17 digit Steam ID. It is the number at the end of your profile URL.",
		InputName: user.Name(),
	}, prompter, func(value string) error {
		return credentials.Await(user, value, requester)
	})
}

// Start restores the last selected game, when a game list was cached, and refreshes
// the game list from Steam.
func (a *App) Start() {
	a.Loop.Post(func() {
		if a.Library.Len() > 0 {
			if appID, ok := a.Settings.SelectedGame(); ok {
				logger.Log.WithField("app_id", appID).Info("Restoring selected game")
				a.View.Select(appID)
			}
		}

		// failures are logged by the game list; the cached list stays in use
		a.Library.Refresh(nil, nil)
	})
}

func (a *App) Close() {
	a.Loop.Stop()
	if err := a.Cache.Close(); err != nil {
		logger.Log.WithError(err).Warn("Failed to close redis connection")
	}
}
