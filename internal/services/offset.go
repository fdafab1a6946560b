package services

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var offsetPattern = regexp.MustCompile(`^([+-]?[0-9]{1,6})([mhd])$`)

// ParseOffset turns a lead-time token into a signed duration.
//
// Accepted shapes are the literal "0" and a signed integer followed by one
// unit: m (minutes), h (hours) or d (24-hour days), e.g. "-15m", "-3d", "+2h".
// Anything else fails with ErrInvalidOffsetToken.
func ParseOffset(token string) (time.Duration, error) {
	if token == "0" {
		return 0, nil
	}
	m := offsetPattern.FindStringSubmatch(token)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOffsetToken, token)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOffsetToken, token)
	}
	var unit time.Duration
	switch m[2] {
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	}
	return time.Duration(n) * unit, nil
}
