package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/joshhsoj1902/achievement-tracker/internal/achievements"
	"github.com/joshhsoj1902/achievement-tracker/internal/library"
	"github.com/joshhsoj1902/achievement-tracker/internal/settings"
	"github.com/joshhsoj1902/achievement-tracker/internal/steam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ012345"
	testUserID = "76561197960287930"
)

type fakeSteam struct {
	server       *httptest.Server
	statsSuccess bool
}

func newFakeSteam(t *testing.T) *fakeSteam {
	t.Helper()
	f := &fakeSteam{statsSuccess: true}

	mux := http.NewServeMux()
	mux.HandleFunc(steam.SupportedAPIListEndpoint, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != testKey {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(`{"apilist":{"interfaces":[]}}`))
	})
	mux.HandleFunc(steam.PlayerSummariesEndpoint, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("steamids") != testUserID {
			w.Write([]byte(`{"response":{"players":[]}}`))
			return
		}
		w.Write([]byte(`{"response":{"players":[{"steamid":"` + testUserID + `","personaname":"tester"}]}}`))
	})
	mux.HandleFunc(steam.OwnedGamesEndpoint, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":{"game_count":1,"games":[{"appid":440,"name":"Team Fortress 2"}]}}`))
	})
	mux.HandleFunc(steam.SchemaForGameEndpoint, func(w http.ResponseWriter, r *http.Request) {
		icon := f.server.URL + "/icons/"
		w.Write([]byte(`{"game":{"gameName":"TF2","availableGameStats":{"achievements":[
			{"name":"ach1","displayName":"First Blood","icon":"` + icon + `ach1.jpg"},
			{"name":"ach2","displayName":"Medic","icon":"` + icon + `ach2.jpg"}]}}}`))
	})
	mux.HandleFunc(steam.PlayerAchievementsEndpoint, func(w http.ResponseWriter, r *http.Request) {
		if !f.statsSuccess {
			w.Write([]byte(`{"playerstats":{"error":"Requested app has no stats","success":false}}`))
			return
		}
		w.Write([]byte(`{"playerstats":{"steamID":"` + testUserID + `","success":true,"achievements":[
			{"apiname":"ach1","achieved":1},{"apiname":"ach2","achieved":0}]}}`))
	})
	mux.HandleFunc("/icons/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("icon"))
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

type scriptedPrompter struct {
	answers []string
	prompts []settings.Prompt
}

func (p *scriptedPrompter) Prompt(prompt settings.Prompt) (string, bool) {
	p.prompts = append(p.prompts, prompt)
	if len(p.answers) == 0 {
		return "", false
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, true
}

func testConfig(t *testing.T, origin string) (Config, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return Config{
		SteamOrigin: origin,
		RedisAddr:   mr.Addr(),
		HTTPTimeout: 2 * time.Second,
	}, mr
}

func bootstrap(t *testing.T, config Config, prompter settings.Prompter) *App {
	t.Helper()
	app, err := Bootstrap(context.Background(), config, prompter)
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

func TestBootstrap_EnvironmentCredentials(t *testing.T) {
	fs := newFakeSteam(t)
	config, _ := testConfig(t, fs.server.URL)
	config.SteamKey = testKey
	config.SteamID = testUserID

	app := bootstrap(t, config, nil)

	assert.Equal(t, testKey, app.Settings.APIKey())
	assert.Equal(t, testUserID, app.Settings.UserID())
	assert.Zero(t, app.Library.Len())
}

func TestBootstrap_StoredCredentialsSkipChecks(t *testing.T) {
	config, mr := testConfig(t, "http://127.0.0.1:1")
	require.NoError(t, mr.Set("achievement_tracker:"+settings.KeySteamAPIKey, testKey))
	require.NoError(t, mr.Set("achievement_tracker:"+settings.KeySteamUserID, testUserID))

	app := bootstrap(t, config, nil)
	assert.Equal(t, testKey, app.Settings.APIKey())
}

func TestBootstrap_PromptsUntilValid(t *testing.T) {
	fs := newFakeSteam(t)
	config, _ := testConfig(t, fs.server.URL)

	prompter := &scriptedPrompter{answers: []string{
		"too-short",
		"ZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZ",
		testKey,
		"76561197960287931",
		testUserID,
	}}

	app := bootstrap(t, config, prompter)

	assert.Equal(t, testKey, app.Settings.APIKey())
	assert.Equal(t, testUserID, app.Settings.UserID())
	require.Len(t, prompter.prompts, 5)
	assert.Nil(t, prompter.prompts[0].Err)
	assert.EqualError(t, prompter.prompts[1].Err, "Invalid key")
	assert.Error(t, prompter.prompts[2].Err, "a 403 refuses the key")
	assert.Equal(t, "Steam ID", prompter.prompts[3].InputName)
	assert.Nil(t, prompter.prompts[3].Err)
	assert.Error(t, prompter.prompts[4].Err)
}

func TestBootstrap_MissingCredentials(t *testing.T) {
	fs := newFakeSteam(t)
	config, _ := testConfig(t, fs.server.URL)

	_, err := Bootstrap(context.Background(), config, nil)

	var configErr *settings.ConfigurationError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, settings.KeySteamAPIKey, configErr.Key)
}

func TestBootstrap_RedisUnavailable(t *testing.T) {
	config, mr := testConfig(t, "http://127.0.0.1:1")
	mr.Close()

	_, err := Bootstrap(context.Background(), config, nil)
	assert.ErrorContains(t, err, "connect to redis")
}

func TestRunAchievements(t *testing.T) {
	fs := newFakeSteam(t)
	config, _ := testConfig(t, fs.server.URL)
	config.SteamKey = testKey
	config.SteamID = testUserID
	app := bootstrap(t, config, nil)

	var out bytes.Buffer
	require.NoError(t, runAchievements(context.Background(), &out, app, 440, false))

	assert.Contains(t, out.String(), "Team Fortress 2 (440)")
	assert.Contains(t, out.String(), "Medic")
	assert.NotContains(t, out.String(), "First Blood")
	assert.Contains(t, out.String(), "1 uncompleted achievements")

	appID, ok := app.Settings.SelectedGame()
	require.True(t, ok)
	assert.Equal(t, 440, appID)
}

func TestRunAchievements_JSON(t *testing.T) {
	fs := newFakeSteam(t)
	config, _ := testConfig(t, fs.server.URL)
	config.SteamKey = testKey
	config.SteamID = testUserID
	app := bootstrap(t, config, nil)

	var out bytes.Buffer
	require.NoError(t, runAchievements(context.Background(), &out, app, 440, true))

	var snap struct {
		State   string `json:"state"`
		AppID   int    `json:"app_id"`
		Entries []struct {
			Key string `json:"key"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &snap))
	assert.Equal(t, "showing_list", snap.State)
	assert.Equal(t, 440, snap.AppID)
	require.Len(t, snap.Entries, 1)
	assert.Equal(t, "ach2", snap.Entries[0].Key)
}

func TestRunAchievements_Failure(t *testing.T) {
	fs := newFakeSteam(t)
	fs.statsSuccess = false
	config, _ := testConfig(t, fs.server.URL)
	config.SteamKey = testKey
	config.SteamID = testUserID
	app := bootstrap(t, config, nil)

	var out bytes.Buffer
	err := runAchievements(context.Background(), &out, app, 440, false)

	assert.True(t, errors.Is(err, ErrLoadFailed))
	assert.Contains(t, out.String(), achievements.ErrorMessage)
}

func TestRunAchievements_UnownedGame(t *testing.T) {
	fs := newFakeSteam(t)
	config, _ := testConfig(t, fs.server.URL)
	config.SteamKey = testKey
	config.SteamID = testUserID
	app := bootstrap(t, config, nil)

	err := runAchievements(context.Background(), &bytes.Buffer{}, app, 999, false)
	assert.ErrorIs(t, err, library.ErrUnknownGame)
}

func TestApp_StartRestoresSelection(t *testing.T) {
	fs := newFakeSteam(t)
	config, mr := testConfig(t, fs.server.URL)
	config.SteamKey = testKey
	config.SteamID = testUserID

	blob, err := library.Encode(map[int]*library.Game{440: {AppID: 440, Name: "Team Fortress 2"}})
	require.NoError(t, err)
	require.NoError(t, mr.Set("achievement_tracker:"+settings.KeyGameList, string(blob)))
	require.NoError(t, mr.Set("achievement_tracker:"+settings.KeySelectedGame, "440"))

	app := bootstrap(t, config, nil)
	app.Start()

	assert.Eventually(t, func() bool {
		var snap achievements.Snapshot
		if err := app.Loop.Call(context.Background(), func() { snap = app.View.Snapshot() }); err != nil {
			return false
		}
		return snap.AppID == 440 && snap.State == achievements.ShowingList
	}, 5*time.Second, 20*time.Millisecond)
}

func TestApp_StartWithoutCachedListKeepsWelcome(t *testing.T) {
	fs := newFakeSteam(t)
	config, mr := testConfig(t, fs.server.URL)
	config.SteamKey = testKey
	config.SteamID = testUserID
	require.NoError(t, mr.Set("achievement_tracker:"+settings.KeySelectedGame, "440"))

	app := bootstrap(t, config, nil)
	app.Start()

	assert.Eventually(t, func() bool {
		var n int
		_ = app.Loop.Call(context.Background(), func() { n = app.Library.Len() })
		return n == 1
	}, 5*time.Second, 20*time.Millisecond)

	var snap achievements.Snapshot
	require.NoError(t, app.Loop.Call(context.Background(), func() { snap = app.View.Snapshot() }))
	assert.Equal(t, achievements.NoSelection, snap.State)
}
