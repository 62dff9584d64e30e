// Package durationgrammar parses the worker's own tiny duration grammar:
// a concatenation of <int><unit> pairs such as "1h2m3s", in any order and
// any quantity, summed into a total. It exists because this grammar is
// looser than time.ParseDuration (units are single letters, no decimals,
// repeated units are summed rather than rejected).
package durationgrammar

import (
	"regexp"
	"strconv"
	"time"

	"github.com/aaronmussig/rsrq/internal/rsrqerr"
)

var pairPattern = regexp.MustCompile(`(\d+)(\w)`)

const (
	unitHours   = "h"
	unitMinutes = "m"
	unitSeconds = "s"
)

// Parse sums every <int><unit> pair found in s. Units are h (hours), m
// (minutes), s (seconds); pairs may appear in any order and repeat. At
// least one valid pair is required, and any unrecognized unit or
// malformed number fails the whole parse.
func Parse(s string) (time.Duration, error) {
	matches := pairPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return 0, rsrqerr.New(rsrqerr.KindParse, "invalid duration provided: "+s)
	}

	var total time.Duration
	for _, m := range matches {
		num, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, rsrqerr.Wrap(rsrqerr.KindParse, "invalid number in duration: "+m[1], err)
		}

		switch m[2] {
		case unitHours:
			total += time.Duration(num) * time.Hour
		case unitMinutes:
			total += time.Duration(num) * time.Minute
		case unitSeconds:
			total += time.Duration(num) * time.Second
		default:
			return 0, rsrqerr.New(rsrqerr.KindParse, "invalid time unit provided: "+m[2])
		}
	}

	return total, nil
}
