package trainerdto

// RoundState is a position on the board as shown to a player.
type RoundState struct {
	RoundID          string `json:"round_id"`
	Mode             string `json:"mode"`
	TimeControl      int    `json:"time_control"`
	TimeControlLabel string `json:"time_control_label"`
	FEN              string `json:"fen"`
	Side             string `json:"side"`
	Remaining        int    `json:"remaining"`
	UserRating       int    `json:"user_rating"`
	PositionRating   int    `json:"position_rating"`
	EvalDisplay      string `json:"eval_display"`
	Material         int    `json:"material"`

	Health             int `json:"health,omitempty"`
	PositionsEvaluated int `json:"positions_evaluated,omitempty"`
	BandMin            int `json:"band_min,omitempty"`
	BandMax            int `json:"band_max,omitempty"`
}

// RoundResult is one scored guess.
type RoundResult struct {
	Mode            string  `json:"mode"`
	TimeControl     int     `json:"time_control"`
	PositionID      string  `json:"position_id"`
	FEN             string  `json:"fen"`
	TrueEval        float64 `json:"true_eval"`
	TrueProbability float64 `json:"true_probability"`
	GuessEval       float64 `json:"guess_eval"`
	GuessProb       float64 `json:"guess_probability"`
	GuessError      float64 `json:"guess_error"`
	Verdict         string  `json:"verdict"`
	TimedOut        bool    `json:"timed_out"`
	EvalDisplay     string  `json:"eval_display"`

	RatingApplied bool `json:"rating_applied"`
	Persisted     bool `json:"persisted"`
	HasExchange   bool `json:"has_exchange"`
	UserBefore    int  `json:"user_before,omitempty"`
	UserAfter     int  `json:"user_after,omitempty"`
	UserChange    int  `json:"user_change,omitempty"`
	PositionAfter int  `json:"position_after,omitempty"`

	Survival *SurvivalResult `json:"survival,omitempty"`
	Next     *RoundState     `json:"next,omitempty"`
}

type SurvivalResult struct {
	HealthLost         int  `json:"health_lost"`
	Health             int  `json:"health"`
	PositionsEvaluated int  `json:"positions_evaluated"`
	GameOver           bool `json:"game_over"`
	FinalScore         int  `json:"final_score"`
	Best               int  `json:"best"`
	NewBest            bool `json:"new_best"`
}
