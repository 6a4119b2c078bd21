package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnsupportedTimeControl is wrapped by every time control validation failure.
var ErrUnsupportedTimeControl = errors.New("unsupported time control")

// TimeControl is the countdown length of a round in whole seconds.
type TimeControl int

const (
	TC5s   TimeControl = 5
	TC15s  TimeControl = 15
	TC30s  TimeControl = 30
	TC60s  TimeControl = 60
	TC120s TimeControl = 120
	TC300s TimeControl = 300
)

// TimeControls lists every supported bucket in ascending order.
var TimeControls = []TimeControl{TC5s, TC15s, TC30s, TC60s, TC120s, TC300s}

func (tc TimeControl) Valid() bool {
	for _, v := range TimeControls {
		if v == tc {
			return true
		}
	}
	return false
}

func (tc TimeControl) Seconds() int { return int(tc) }

func (tc TimeControl) Duration() time.Duration { return time.Duration(tc) * time.Second }

// Format renders seconds as m:ss.
func (tc TimeControl) Format() string {
	return FormatClock(int(tc))
}

func (tc TimeControl) String() string { return strconv.Itoa(int(tc)) }

// FormatClock renders a second count as m:ss. Negative values render as 0:00.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// ParseTimeControl accepts "30", "30s", "2m" and "1:00".
func ParseTimeControl(raw string) (TimeControl, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrUnsupportedTimeControl)
	}

	var secs int
	switch {
	case strings.Contains(s, ":"):
		parts := strings.SplitN(s, ":", 2)
		m, err1 := strconv.Atoi(parts[0])
		sec, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil || len(parts[1]) != 2 {
			return 0, fmt.Errorf("%w %q", ErrUnsupportedTimeControl, raw)
		}
		secs = m*60 + sec
	case strings.HasSuffix(s, "m"):
		m, err := strconv.Atoi(strings.TrimSuffix(s, "m"))
		if err != nil {
			return 0, fmt.Errorf("%w %q", ErrUnsupportedTimeControl, raw)
		}
		secs = m * 60
	default:
		n, err := strconv.Atoi(strings.TrimSuffix(s, "s"))
		if err != nil {
			return 0, fmt.Errorf("%w %q", ErrUnsupportedTimeControl, raw)
		}
		secs = n
	}

	tc := TimeControl(secs)
	if !tc.Valid() {
		return 0, fmt.Errorf("%w %q", ErrUnsupportedTimeControl, raw)
	}
	return tc, nil
}
