package classify

import (
	"fmt"
	"time"

	"github.com/solvaholic/teampulse/internal/normalize"
)

// Time-based classification types.
const (
	Weekend    = "weekend"
	AfterHours = "after_hours"
)

// Classification is one signal detected on a message.
type Classification struct {
	Type       string   `json:"type"`       // keyword set name, "weekend" or "after_hours"
	Confidence float64  `json:"confidence"` // 0.0 to 1.0
	Signals    []string `json:"signals"`    // what triggered this classification
}

// ClassifyMessage returns every keyword and timing classification that
// applies to msg. Timing is evaluated in loc; nil means UTC.
func ClassifyMessage(msg *normalize.Message, lex *Lexicon, loc *time.Location) []Classification {
	var out []Classification

	for _, set := range lex.Sets() {
		hits := set.Hits(msg.Text)
		if len(hits) == 0 {
			continue
		}
		// Each extra phrase from the same set adds confidence
		confidence := 0.4 + 0.2*float64(len(hits))
		if confidence > 1.0 {
			confidence = 1.0
		}
		signals := make([]string, 0, len(hits))
		for _, h := range hits {
			signals = append(signals, "keyword:"+h)
		}
		out = append(out, Classification{
			Type:       set.Name,
			Confidence: confidence,
			Signals:    signals,
		})
	}

	if IsWeekend(msg.Timestamp, loc) {
		out = append(out, Classification{
			Type:       Weekend,
			Confidence: 1.0,
			Signals:    []string{"day:" + in(msg.Timestamp, loc).Weekday().String()},
		})
	}

	if IsAfterHours(msg.Timestamp, loc) {
		out = append(out, Classification{
			Type:       AfterHours,
			Confidence: 1.0,
			Signals:    []string{fmt.Sprintf("hour:%02d", in(msg.Timestamp, loc).Hour())},
		})
	}

	return out
}

// IsWeekend reports whether t falls on a Saturday or Sunday in loc.
func IsWeekend(t time.Time, loc *time.Location) bool {
	d := in(t, loc).Weekday()
	return d == time.Saturday || d == time.Sunday
}

// IsAfterHours reports whether t is before 08:00 or after 18:59 in loc.
func IsAfterHours(t time.Time, loc *time.Location) bool {
	h := in(t, loc).Hour()
	return h < 8 || h > 18
}

// IsOutsideBusinessHours reports whether t is outside 09:00-17:59 in loc.
func IsOutsideBusinessHours(t time.Time, loc *time.Location) bool {
	h := in(t, loc).Hour()
	return h < 9 || h > 17
}

func in(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t.UTC()
	}
	return t.In(loc)
}
