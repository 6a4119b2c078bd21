package trainerdto

// Transform answers /api/v1/transform.
type Transform struct {
	Eval        float64 `json:"eval"`
	Side        string  `json:"side"`
	Probability float64 `json:"probability"`
	RoundTrip   float64 `json:"round_trip"`
	Verdict     string  `json:"verdict"`
}
