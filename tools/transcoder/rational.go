package transcoder

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseRational reduces a frame-rate value such as "30000/1001", "25/1" or
// "29.97" to a decimal. Only digits, one optional '.' per side and a single
// '/' are accepted. A zero denominator (ffprobe reports "0/0" for unknown
// rates) yields 0.
func ParseRational(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty ratio")
	}

	num, den, found := strings.Cut(s, "/")
	if strings.Contains(den, "/") {
		return 0, fmt.Errorf("invalid ratio %q", s)
	}

	n, err := parseDecimal(num)
	if err != nil {
		return 0, fmt.Errorf("invalid ratio %q: %w", s, err)
	}
	if !found {
		return n, nil
	}

	d, err := parseDecimal(den)
	if err != nil {
		return 0, fmt.Errorf("invalid ratio %q: %w", s, err)
	}
	if d == 0 {
		return 0, nil
	}

	return n / d, nil
}

func parseDecimal(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty operand")
	}

	dots := 0
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c == '.':
			dots++
			if dots > 1 {
				return 0, fmt.Errorf("unexpected %q", c)
			}
		default:
			return 0, fmt.Errorf("unexpected %q", c)
		}
	}
	if s == "." {
		return 0, fmt.Errorf("no digits")
	}

	return strconv.ParseFloat(s, 64)
}
