package credentials

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/joshhsoj1902/achievement-tracker/internal/loop"
	"github.com/joshhsoj1902/achievement-tracker/internal/steam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	validKey    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ012345"
	validUserID = "76561197960287930"
)

type countingRequester struct {
	calls int
}

func (c *countingRequester) Get(string, func(any, any), func(error, any), steam.DecodeMode, any) {
	c.calls++
}

func TestAPIKey_Validate(t *testing.T) {
	v := NewAPIKey(steam.APIOrigin)

	assert.True(t, v.Validate(strings.Repeat("A", 32)))
	assert.True(t, v.Validate(validKey))
	assert.False(t, v.Validate(strings.Repeat("A", 31)))
	assert.False(t, v.Validate(strings.Repeat("A", 33)))
	assert.False(t, v.Validate(strings.Repeat("A", 31)+"-"))
	assert.False(t, v.Validate(strings.Repeat("é", 16)))
	assert.False(t, v.Validate(""))
}

func TestUserID_Validate(t *testing.T) {
	v := NewUserID(steam.APIOrigin, validKey)

	assert.True(t, v.Validate(validUserID))
	assert.False(t, v.Validate("7656119796028793"))
	assert.False(t, v.Validate("765611979602879301"))
	assert.False(t, v.Validate("7656119796028793a"))
	assert.False(t, v.Validate(""))
}

func TestURLs(t *testing.T) {
	assert.Equal(t,
		"https://api.steampowered.com/ISteamWebAPIUtil/GetSupportedAPIList/v1?key="+validKey,
		NewAPIKey(steam.APIOrigin).URL(validKey))
	assert.Equal(t,
		"https://api.steampowered.com/ISteamUser/GetPlayerSummaries/v2?key="+validKey+"&steamids="+validUserID,
		NewUserID(steam.APIOrigin, validKey).URL(validUserID))
}

func TestUserID_ValidateReply(t *testing.T) {
	v := NewUserID(steam.APIOrigin, validKey)

	assert.False(t, v.ValidateReply([]byte(`{"response":{"players":[]}}`)))
	assert.False(t, v.ValidateReply([]byte(`not json`)))
	assert.True(t, v.ValidateReply([]byte(`{"response":{"players":[{"steamid":"76561197960287930"}]}}`)))
}

func TestCheck_LocalFailuresMakeNoRequest(t *testing.T) {
	tests := []struct {
		name    string
		v       Validator
		input   string
		wantErr error
		wantMsg string
	}{
		{"empty key", NewAPIKey(steam.APIOrigin), "", ErrEmptyInput, "No key provided"},
		{"short key", NewAPIKey(steam.APIOrigin), strings.Repeat("A", 31), ErrMalformedInput, "Invalid key"},
		{"empty id", NewUserID(steam.APIOrigin, validKey), "", ErrEmptyInput, "No Steam ID provided"},
		{"letters in id", NewUserID(steam.APIOrigin, validKey), "7656119796028793x", ErrMalformedInput, "Invalid Steam ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requester := &countingRequester{}
			called := false

			err := Check(tt.v, tt.input, requester, func(error) { called = true })

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.Zero(t, requester.calls)
			assert.False(t, called)
		})
	}
}

func TestCheck_ValidSyntaxMakesExactlyOneRequest(t *testing.T) {
	requester := &countingRequester{}
	require.NoError(t, Check(NewAPIKey(steam.APIOrigin), strings.Repeat("A", 32), requester, func(error) {}))
	assert.Equal(t, 1, requester.calls)
}

func newRemote(t *testing.T, handler http.HandlerFunc) (*steam.Requester, string) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	l := loop.New()
	l.Start()
	t.Cleanup(l.Stop)

	client := steam.NewClient(steam.Config{Origin: server.URL})
	return steam.NewRequester(context.Background(), client, l), server.URL
}

func TestAwait_APIKey(t *testing.T) {
	var hits atomic.Int32
	requester, origin := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, steam.SupportedAPIListEndpoint, r.URL.Path)
		if r.URL.Query().Get("key") != validKey {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`{"apilist":{"interfaces":[]}}`))
	})

	v := NewAPIKey(origin)
	assert.NoError(t, Await(v, validKey, requester))

	err := Await(v, strings.Repeat("B", 32), requester)
	assert.ErrorIs(t, err, steam.ErrForbidden)
	assert.EqualValues(t, 2, hits.Load())

	// retrying is safe and gives the same answer
	assert.NoError(t, Await(v, validKey, requester))
}

func TestAwait_UserID(t *testing.T) {
	requester, origin := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, steam.PlayerSummariesEndpoint, r.URL.Path)
		assert.Equal(t, validKey, r.URL.Query().Get("key"))
		if r.URL.Query().Get("steamids") == validUserID {
			_, _ = w.Write([]byte(`{"response":{"players":[{"steamid":"76561197960287930","personaname":"gabe"}]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"response":{"players":[]}}`))
	})

	v := NewUserID(origin, validKey)
	assert.NoError(t, Await(v, validUserID, requester))

	err := Await(v, "76561197960287931", requester)
	assert.ErrorIs(t, err, ErrRejected)

	var validationErr *ValidationError
	assert.False(t, errors.As(err, &validationErr))
}
