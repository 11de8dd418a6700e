package credentials

import (
	"encoding/json"

	"github.com/joshhsoj1902/achievement-tracker/internal/steam"
)

const (
	APIKeyLength = 32
	UserIDLength = 17

	// APIKeyPage is where users register a Steam Web API key
	APIKeyPage = "https://steamcommunity.com/dev/apikey"
)

// APIKey checks a Steam Web API key with the supported API list endpoint
type APIKey struct {
	Origin string
}

func NewAPIKey(origin string) *APIKey {
	return &APIKey{Origin: origin}
}

func (v *APIKey) Name() string { return "key" }

func (v *APIKey) Validate(text string) bool {
	if len(text) != APIKeyLength {
		return false
	}
	for _, r := range text {
		if !isASCIILetter(r) && !isASCIIDigit(r) {
			return false
		}
	}
	return true
}

func (v *APIKey) URL(text string) string {
	return v.Origin + steam.SupportedAPIListEndpoint + "?key=" + text
}

// ValidateReply accepts any body: a bad key never gets a 200
func (v *APIKey) ValidateReply(body []byte) bool {
	return true
}

// UserID checks a 64-bit Steam id with the player summaries endpoint
type UserID struct {
	Origin string
	APIKey string
}

func NewUserID(origin, apiKey string) *UserID {
	return &UserID{Origin: origin, APIKey: apiKey}
}

func (v *UserID) Name() string { return "Steam ID" }

func (v *UserID) Validate(text string) bool {
	if len(text) != UserIDLength {
		return false
	}
	for _, r := range text {
		if !isASCIIDigit(r) {
			return false
		}
	}
	return true
}

func (v *UserID) URL(text string) string {
	return v.Origin + steam.PlayerSummariesEndpoint + "?key=" + v.APIKey + "&steamids=" + text
}

// ValidateReply rejects the empty player list Steam returns for unknown ids
func (v *UserID) ValidateReply(body []byte) bool {
	var resp steam.PlayerSummariesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false
	}
	return len(resp.Response.Players) > 0
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
