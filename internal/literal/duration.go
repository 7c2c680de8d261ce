package literal

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var errInvalidDuration = errors.New("invalid ISO 8601 duration")

// ParseDuration parses the day-time subset of ISO 8601 durations used by
// time'...' literals: [-]P[nD][T[nH][nM][n[.f]S]].
func ParseDuration(s string) (time.Duration, error) {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") || len(s) < 2 {
		return 0, errInvalidDuration
	}
	s = s[1:]

	var total time.Duration
	inTime := false
	seen := false
	for len(s) > 0 {
		if s[0] == 'T' {
			if inTime {
				return 0, errInvalidDuration
			}
			inTime = true
			s = s[1:]
			if s == "" {
				return 0, errInvalidDuration
			}
			continue
		}

		i := 0
		for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
			i++
		}
		if i == 0 || i == len(s) {
			return 0, errInvalidDuration
		}
		number, unit := s[:i], s[i]
		s = s[i+1:]

		var scale time.Duration
		switch {
		case unit == 'D' && !inTime:
			scale = 24 * time.Hour
		case unit == 'H' && inTime:
			scale = time.Hour
		case unit == 'M' && inTime:
			scale = time.Minute
		case unit == 'S' && inTime:
			scale = time.Second
		default:
			return 0, errInvalidDuration
		}

		if strings.Contains(number, ".") {
			if unit != 'S' {
				return 0, errInvalidDuration
			}
			f, err := strconv.ParseFloat(number, 64)
			if err != nil {
				return 0, errInvalidDuration
			}
			total += time.Duration(f * float64(time.Second))
		} else {
			n, err := strconv.ParseInt(number, 10, 64)
			if err != nil {
				return 0, errInvalidDuration
			}
			total += time.Duration(n) * scale
		}
		seen = true
	}
	if !seen {
		return 0, errInvalidDuration
	}
	if neg {
		total = -total
	}
	return total, nil
}

// FormatDuration renders d as an ISO 8601 day-time duration.
func FormatDuration(d time.Duration) string {
	var b strings.Builder
	if d < 0 {
		b.WriteByte('-')
		d = -d
	}
	b.WriteByte('P')

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	if days > 0 {
		b.WriteString(strconv.FormatInt(int64(days), 10))
		b.WriteByte('D')
	}
	if d == 0 {
		if days == 0 {
			b.WriteString("T0S")
		}
		return b.String()
	}

	b.WriteByte('T')
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	if hours > 0 {
		b.WriteString(strconv.FormatInt(int64(hours), 10))
		b.WriteByte('H')
	}
	if minutes > 0 {
		b.WriteString(strconv.FormatInt(int64(minutes), 10))
		b.WriteByte('M')
	}
	if d > 0 {
		b.WriteString(strconv.FormatFloat(d.Seconds(), 'f', -1, 64))
		b.WriteByte('S')
	}
	return b.String()
}
