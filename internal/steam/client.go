package steam

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joshhsoj1902/achievement-tracker/internal/logger"
	"github.com/sirupsen/logrus"
)

const (
	APIOrigin                  = "https://api.steampowered.com"
	OwnedGamesEndpoint         = "/IPlayerService/GetOwnedGames/v0001/"
	SchemaForGameEndpoint      = "/ISteamUserStats/GetSchemaForGame/v2/"
	PlayerAchievementsEndpoint = "/ISteamUserStats/GetPlayerAchievements/v1/"
	SupportedAPIListEndpoint   = "/ISteamWebAPIUtil/GetSupportedAPIList/v1"
	PlayerSummariesEndpoint    = "/ISteamUser/GetPlayerSummaries/v2"
	DefaultTimeout             = 10 * time.Second
	maxLoggedBodyLength        = 200
)

type Config struct {
	APIKey  string
	UserID  string
	Origin  string
	Timeout time.Duration
	// RateLimit is optional; without it the client never backs off
	RateLimit *RateLimitState
}

type Client struct {
	apiKey     string
	userID     string
	origin     string
	httpClient *http.Client
	rateLimit  *RateLimitState
}

func NewClient(config Config) *Client {
	if config.Origin == "" {
		config.Origin = APIOrigin
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &Client{
		apiKey: config.APIKey,
		userID: config.UserID,
		origin: strings.TrimRight(config.Origin, "/"),
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: config.RateLimit,
	}
}

// Origin is the scheme and host every endpoint URL is built on
func (c *Client) Origin() string {
	return c.origin
}

// URL builds an endpoint URL with the given query parameters
func (c *Client) URL(endpoint string, params map[string]string) string {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	if len(q) == 0 {
		return c.origin + endpoint
	}
	return c.origin + endpoint + "?" + q.Encode()
}

// authURL builds an endpoint URL carrying the configured API key and format=json
func (c *Client) authURL(endpoint string, params map[string]string) string {
	all := map[string]string{
		"key":    c.apiKey,
		"format": "json",
	}
	for k, v := range params {
		all[k] = v
	}
	return c.URL(endpoint, all)
}

func (c *Client) OwnedGamesURL() string {
	return c.authURL(OwnedGamesEndpoint, map[string]string{
		"steamid":                   c.userID,
		"include_appinfo":           "true",
		"include_played_free_games": "true",
	})
}

func (c *Client) SchemaForGameURL(appID int) string {
	return c.authURL(SchemaForGameEndpoint, map[string]string{
		"appid": strconv.Itoa(appID),
	})
}

func (c *Client) PlayerAchievementsURL(appID int) string {
	return c.authURL(PlayerAchievementsEndpoint, map[string]string{
		"steamid": c.userID,
		"appid":   strconv.Itoa(appID),
	})
}

// Get performs one GET and returns the body of a 200 response
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	redacted := RedactURL(rawURL)
	endpoint := endpointLabel(rawURL, c.origin)

	// the backoff tracks the Steam API only; icon hosts rate limit on their own
	rateLimit := c.rateLimit
	if endpoint == endpointIcon {
		rateLimit = nil
	}

	if rateLimit != nil && rateLimit.CheckAndBlock() {
		recordRequest(endpoint, outcomeRateLimited)
		return nil, &TransportError{URL: redacted, Err: ErrRateLimited}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		recordRequest(endpoint, outcomeError)
		return nil, &TransportError{URL: redacted, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	logger.Log.WithField("url", redacted).Debug("Making Steam API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Log.WithError(err).WithField("url", redacted).Error("Steam API request failed")
		recordRequest(endpoint, outcomeError)
		return nil, &TransportError{URL: redacted, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to read Steam API response body")
		recordRequest(endpoint, outcomeError)
		return nil, &TransportError{URL: redacted, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	logger.Log.WithFields(logrus.Fields{
		"url":         redacted,
		"status_code": resp.StatusCode,
		"body_length": len(body),
	}).Debug("Steam API response received")

	var statusErr error
	switch resp.StatusCode {
	case http.StatusOK:
		if rateLimit != nil {
			rateLimit.RecordSuccess()
		}
		recordRequest(endpoint, outcomeSuccess)
		return body, nil
	case http.StatusTooManyRequests:
		logger.Log.Error("Steam API rate limit exceeded (429)")
		if rateLimit != nil {
			rateLimit.RecordRateLimited()
		}
		recordRequest(endpoint, outcomeRateLimited)
		return nil, &TransportError{URL: redacted, StatusCode: resp.StatusCode, Err: ErrRateLimited}
	case http.StatusUnauthorized:
		logger.Log.Error("Steam API unauthorized (401) - check API key")
		statusErr = ErrUnauthorized
	case http.StatusForbidden:
		logger.Log.Error("Steam API forbidden (403) - check API key and permissions")
		statusErr = ErrForbidden
	case http.StatusBadRequest:
		logger.Log.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"body":        preview(body),
		}).Error("Steam API bad request (400)")
		statusErr = ErrBadRequest
	default:
		logger.Log.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"body":        preview(body),
		}).Error("Unexpected Steam API response")
		statusErr = ErrUnexpectedStatus
	}

	recordRequest(endpoint, outcomeError)
	return nil, &TransportError{URL: redacted, StatusCode: resp.StatusCode, Err: statusErr}
}

// GetJSON performs one GET and decodes the JSON body into target
func (c *Client) GetJSON(ctx context.Context, rawURL string, target interface{}) error {
	body, err := c.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	return decodeJSON(rawURL, body, target)
}

func decodeJSON(rawURL string, body []byte, target interface{}) error {
	// Check if the response starts with HTML (common error case)
	if len(body) > 0 && body[0] == '<' {
		logger.Log.WithField("body", preview(body)).Error("Received HTML instead of JSON from Steam API")
		return &TransportError{URL: RedactURL(rawURL), StatusCode: http.StatusOK, Err: ErrHTMLResponse}
	}

	if err := json.NewDecoder(bytes.NewReader(body)).Decode(target); err != nil {
		logger.Log.WithError(err).WithField("body_preview", preview(body)).Error("Failed to decode Steam API JSON response")
		return &TransportError{URL: RedactURL(rawURL), StatusCode: http.StatusOK, Err: fmt.Errorf("failed to decode JSON: %w", err)}
	}
	return nil
}

func (c *Client) checkConfigured() error {
	if c.apiKey == "" || c.userID == "" {
		logger.Log.Error("Steam API key or user ID not configured")
		return ErrNotConfigured
	}
	return nil
}

// GetOwnedGames retrieves the list of games owned by the configured user
func (c *Client) GetOwnedGames(ctx context.Context) (OwnedGamesResponse, error) {
	if err := c.checkConfigured(); err != nil {
		return OwnedGamesResponse{}, err
	}

	logger.Log.WithField("steam_id", c.userID).Info("Fetching owned games from Steam API")

	var httpResp OwnedGamesHttpResponse
	if err := c.GetJSON(ctx, c.OwnedGamesURL(), &httpResp); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"steam_id": c.userID,
			"error":    err.Error(),
		}).Error("Failed to get owned games from Steam API")
		return OwnedGamesResponse{}, fmt.Errorf("GetOwnedGames failed for steamid=%s: %w", c.userID, err)
	}

	logger.Log.WithFields(logrus.Fields{
		"steam_id":   c.userID,
		"game_count": httpResp.Response.GameCount,
	}).Info("Successfully fetched owned games from Steam API")

	return httpResp.Response, nil
}

// GetSchemaForGame retrieves the static achievement catalogue of a game
func (c *Client) GetSchemaForGame(ctx context.Context, appID int) (GameSchema, error) {
	if err := c.checkConfigured(); err != nil {
		return GameSchema{}, err
	}

	var resp SchemaForGameResponse
	if err := c.GetJSON(ctx, c.SchemaForGameURL(appID), &resp); err != nil {
		return GameSchema{}, fmt.Errorf("GetSchemaForGame failed for appid=%d: %w", appID, err)
	}
	return resp.Game, nil
}

// GetPlayerAchievements retrieves the configured player's completion flags for a game
func (c *Client) GetPlayerAchievements(ctx context.Context, appID int) (PlayerStats, error) {
	if err := c.checkConfigured(); err != nil {
		return PlayerStats{}, err
	}

	var resp PlayerAchievementsResponse
	if err := c.GetJSON(ctx, c.PlayerAchievementsURL(appID), &resp); err != nil {
		return PlayerStats{}, fmt.Errorf("GetPlayerAchievements failed for appid=%d: %w", appID, err)
	}
	return resp.PlayerStats, nil
}

// RedactURL hides the key query parameter so URLs can be logged
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "[unparseable url]"
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "[HIDDEN]")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > maxLoggedBodyLength {
		return s[:maxLoggedBodyLength] + "..."
	}
	return s
}
