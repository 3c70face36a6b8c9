package analyzer

import (
	"math"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// CheckedAtLayout is the localized rendering of a result timestamp.
const CheckedAtLayout = "Jan 2, 2006, 3:04:05 PM"

// Percent converts a 0..1 score into a whole percentage. Halves round toward
// positive infinity. Scores outside 0..1 are not clamped, and the value stays
// a float64 so huge scores keep their sign and magnitude.
func Percent(score float64) float64 {
	return math.Floor(score*100 + 0.5)
}

// FormatPercent renders a score as "42%".
func FormatPercent(score float64) string {
	return strconv.FormatFloat(Percent(score), 'f', -1, 64) + "%"
}

// FormatCheckedAt renders the result timestamp in local time with a relative
// suffix. It returns "" when the service sent no timestamp, which callers use
// to omit the line entirely.
func FormatCheckedAt(checkedAt *time.Time, now time.Time) string {
	if checkedAt == nil || checkedAt.IsZero() {
		return ""
	}
	local := checkedAt.In(time.Local)
	return local.Format(CheckedAtLayout) + " (" + humanize.RelTime(*checkedAt, now, "ago", "from now") + ")"
}

// InRange reports whether a score lies in the documented 0..1 range.
func InRange(score float64) bool {
	return score >= 0 && score <= 1
}
