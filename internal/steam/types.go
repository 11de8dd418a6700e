package steam

type OwnedGame struct {
	AppID           int    `json:"appid"`
	Name            string `json:"name"`
	PlaytimeForever int    `json:"playtime_forever"` // This is in minutes
}

type OwnedGamesResponse struct {
	GameCount uint        `json:"game_count"`
	Games     []OwnedGame `json:"games"`
}

type OwnedGamesHttpResponse struct {
	Response OwnedGamesResponse `json:"response"`
}

// SchemaAchievement is one entry of a game's static achievement catalogue
type SchemaAchievement struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	IconGray    string `json:"icongray"`
	Hidden      int    `json:"hidden"`
}

type GameSchema struct {
	GameName           string `json:"gameName"`
	GameVersion        string `json:"gameVersion"`
	AvailableGameStats struct {
		Achievements []SchemaAchievement `json:"achievements"`
	} `json:"availableGameStats"`
}

type SchemaForGameResponse struct {
	Game GameSchema `json:"game"`
}

// PlayerAchievement is the completion flag of one achievement for the configured player
type PlayerAchievement struct {
	APIName    string `json:"apiname"`
	Achieved   int    `json:"achieved"`
	UnlockTime int64  `json:"unlocktime"`
}

type PlayerStats struct {
	SteamID      string              `json:"steamID"`
	GameName     string              `json:"gameName"`
	Achievements []PlayerAchievement `json:"achievements"`
	Success      bool                `json:"success"`
	Error        string              `json:"error,omitempty"`
}

type PlayerAchievementsResponse struct {
	PlayerStats PlayerStats `json:"playerstats"`
}

type PlayerSummary struct {
	SteamID      string `json:"steamid"`
	PersonaName  string `json:"personaname"`
	ProfileURL   string `json:"profileurl"`
	Avatar       string `json:"avatar"`
	AvatarMedium string `json:"avatarmedium"`
	AvatarFull   string `json:"avatarfull"`
}

type PlayerSummariesResponse struct {
	Response struct {
		Players []PlayerSummary `json:"players"`
	} `json:"response"`
}
