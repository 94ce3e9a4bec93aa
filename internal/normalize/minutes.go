package normalize

import (
	"strings"

	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
)

// secondsThreshold separates minute values from second values: no game
// lasts more than 300 minutes.
const secondsThreshold = 300

// ParseMinutes reads minutes played from a number, a "MM:SS" or "HH:MM:SS"
// clock string, or a decimal string (comma allowed). Values above 300 are
// taken as seconds.
func ParseMinutes(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case string:
		return parseMinutesString(t)
	case bool:
		return 0, false
	}
	n, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	n, ok := finite(n)
	if !ok {
		return 0, false
	}
	return fromSeconds(n), true
}

func parseMinutesString(raw string) (float64, bool) {
	s := strings.TrimSpace(strings.Replace(raw, ",", ".", 1))
	if s == "" {
		return 0, false
	}

	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		switch len(parts) {
		case 2:
			mm, err := cast.ToFloat64E(parts[0])
			if err != nil {
				return 0, false
			}
			return mm + secondsPart(parts[1]), true
		case 3:
			hh, err := cast.ToFloat64E(parts[0])
			if err != nil {
				return 0, false
			}
			mm, err := cast.ToFloat64E(parts[1])
			if err != nil {
				return 0, false
			}
			return hh*60 + mm + secondsPart(parts[2]), true
		}
		return 0, false
	}

	n, err := cast.ToFloat64E(s)
	if err != nil {
		return 0, false
	}
	n, ok := finite(n)
	if !ok {
		return 0, false
	}
	return fromSeconds(n), true
}

// secondsPart converts an unreadable seconds field to zero.
func secondsPart(s string) float64 {
	ss, err := cast.ToFloat64E(s)
	if err != nil {
		return 0
	}
	if ss, ok := finite(ss); ok {
		return ss / 60
	}
	return 0
}

func fromSeconds(n float64) float64 {
	if n > secondsThreshold {
		return n / 60
	}
	return n
}

// pickMinutes returns the first readable minutes value of a game record.
func pickMinutes(game gjson.Result) (float64, bool) {
	for _, p := range MinutesPaths {
		r := game.Get(p)
		if !scalar(r) {
			continue
		}
		if m, ok := ParseMinutes(r.Value()); ok {
			return m, true
		}
	}
	return 0, false
}
