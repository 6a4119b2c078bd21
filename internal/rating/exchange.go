package rating

import "math"

// Params shape the transfer between a user rating and a position difficulty rating.
type Params struct {
	// ErrorOffset is the probability error treated as an acceptable miss.
	ErrorOffset float64
	MeritBonus  float64
	KFactor     float64
	ScaleFactor float64
}

func DefaultParams() Params {
	return Params{
		ErrorOffset: 0.18,
		MeritBonus:  0.1,
		KFactor:     100,
		ScaleFactor: 400,
	}
}

// Exchange is the outcome of scoring one guess. Delta is subtracted from the user
// and added to the position, so a negative Delta is a user gain.
type Exchange struct {
	Delta          int
	UserBefore     int
	UserAfter      int
	PositionBefore int
	PositionAfter  int
	Error          float64
	GoodGuess      bool
}

// UserChange is the signed change to the user's rating.
func (e Exchange) UserChange() int { return e.UserAfter - e.UserBefore }

// Expected is the logistic expected score of a against b.
func Expected(a, b int, scale float64) float64 {
	if scale <= 0 {
		scale = 400
	}
	return 1 / (1 + math.Pow(10, float64(b-a)/scale))
}

// Delta truncates toward zero. An error exactly at the offset counts as a good guess.
func Delta(user, position int, guessErr float64, p Params) int {
	if math.IsNaN(guessErr) {
		guessErr = 0
	}
	e := guessErr - p.ErrorOffset
	if e > 0 {
		m := Expected(user, position, p.ScaleFactor)
		return int(m * (e + p.MeritBonus) * p.KFactor)
	}
	m := Expected(position, user, p.ScaleFactor)
	return int(m * (e - p.MeritBonus) * p.KFactor)
}

func Apply(user, position int, guessErr float64, p Params) Exchange {
	d := Delta(user, position, guessErr, p)
	e := guessErr - p.ErrorOffset
	return Exchange{
		Delta:          d,
		UserBefore:     user,
		UserAfter:      user - d,
		PositionBefore: position,
		PositionAfter:  position + d,
		Error:          e,
		GoodGuess:      !(e > 0),
	}
}
