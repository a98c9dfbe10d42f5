package orchestratornode

import (
	"fmt"
	"math"
	"time"

	contractx "github.com/tanpawarit/recruiter-chat/agent/contract"
)

const DefaultSweepHours = 24

// SweepHours converts an hour count, fractions allowed, into a max age.
func SweepHours(hours float64) (time.Duration, error) {
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours < 0 {
		return 0, fmt.Errorf("%w: hoursOld must be a non-negative number", contractx.ErrValidation)
	}
	return time.Duration(hours * float64(time.Hour)), nil
}

// SweepSessions removes sessions idle for longer than hours.
func SweepSessions(store contractx.SessionStore, hours float64) (int, error) {
	maxAge, err := SweepHours(hours)
	if err != nil {
		return 0, err
	}
	return store.Sweep(maxAge), nil
}
