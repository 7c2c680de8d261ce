package literal

import "time"

// ScanDateTime scans a date/time literal at the start of s using a fixed
// component layout: YYYY-M[M]-D[D]TH[H]:M[M][:S[S][.fraction]][Z|(+|-)HH:MM].
// It reports the number of bytes consumed, or ok=false on any structural
// mismatch or out-of-range component so that callers can fall back to another
// interpretation of the same text. Offsets are applied and the result is in
// UTC; fractions are truncated to millisecond precision.
func ScanDateTime(s string) (t time.Time, n int, ok bool) {
	sc := dateScanner{s: s}

	year, ok := sc.digits(4, 4)
	if !ok || !sc.expect('-') {
		return time.Time{}, 0, false
	}
	month, ok := sc.digits(1, 2)
	if !ok || !sc.expect('-') {
		return time.Time{}, 0, false
	}
	day, ok := sc.digits(1, 2)
	if !ok || !sc.expect('T') {
		return time.Time{}, 0, false
	}
	hour, ok := sc.digits(1, 2)
	if !ok || !sc.expect(':') {
		return time.Time{}, 0, false
	}
	minute, ok := sc.digits(1, 2)
	if !ok {
		return time.Time{}, 0, false
	}

	second, millis := 0, 0
	if sc.peek() == ':' {
		sc.pos++
		if second, ok = sc.digits(1, 2); !ok {
			return time.Time{}, 0, false
		}
		if sc.peek() == '.' {
			sc.pos++
			start := sc.pos
			for isDigit(sc.peek()) {
				sc.pos++
			}
			fraction := s[start:sc.pos]
			if fraction == "" {
				return time.Time{}, 0, false
			}
			for i := 0; i < 3; i++ {
				millis *= 10
				if i < len(fraction) {
					millis += int(fraction[i] - '0')
				}
			}
		}
	}

	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, 0, false
	}

	offset := 0
	switch sc.peek() {
	case 'Z':
		sc.pos++
	case '+', '-':
		sign := 1
		if sc.peek() == '-' {
			sign = -1
		}
		save := sc.pos
		sc.pos++
		oh, okh := sc.digits(2, 2)
		if okh && sc.expect(':') {
			if om, okm := sc.digits(2, 2); okm && oh <= 23 && om <= 59 {
				offset = sign * (oh*3600 + om*60)
				break
			}
		}
		// Not an offset; leave the sign for the caller.
		sc.pos = save
	}

	loc := time.UTC
	if offset != 0 {
		loc = time.FixedZone("", offset)
	}
	t = time.Date(year, time.Month(month), day, hour, minute, second, millis*int(time.Millisecond), loc)
	return t.UTC(), sc.pos, true
}

// ParseDateTime parses s as a complete date/time literal.
func ParseDateTime(s string) (time.Time, bool) {
	t, n, ok := ScanDateTime(s)
	if !ok || n != len(s) {
		return time.Time{}, false
	}
	return t, true
}

type dateScanner struct {
	s   string
	pos int
}

func (d *dateScanner) peek() byte {
	if d.pos >= len(d.s) {
		return 0
	}
	return d.s[d.pos]
}

func (d *dateScanner) expect(c byte) bool {
	if d.peek() != c {
		return false
	}
	d.pos++
	return true
}

func (d *dateScanner) digits(min, max int) (int, bool) {
	value, count := 0, 0
	for count < max && isDigit(d.peek()) {
		value = value*10 + int(d.s[d.pos]-'0')
		d.pos++
		count++
	}
	if count < min || isDigit(d.peek()) {
		return 0, false
	}
	return value, true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
