package trainerdto

import "time"

type TimeControlStats struct {
	TimeControl      int    `json:"time_control"`
	TimeControlLabel string `json:"time_control_label"`
	Rating           int    `json:"rating"`
	Rank             int    `json:"rank,omitempty"`
	SurvivalBest     int    `json:"survival_best"`
}

type Profile struct {
	UserID        string             `json:"user_id"`
	Username      string             `json:"username"`
	EvalDisplay   string             `json:"eval_display"`
	UpdateRatings bool               `json:"update_ratings"`
	Stats         []TimeControlStats `json:"stats"`
	CreatedAt     time.Time          `json:"created_at"`
}
