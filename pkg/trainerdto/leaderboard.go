package trainerdto

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

type Leaderboard struct {
	Kind             string             `json:"kind"`
	TimeControl      int                `json:"time_control"`
	TimeControlLabel string             `json:"time_control_label"`
	Entries          []LeaderboardEntry `json:"entries"`
}
