package job

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jessegalley/go-filesize"
)

// parseSize accepts a decimal integer optionally suffixed by k/m/g/p
// (case-insensitive), each meaning a multiplication by 1024 over the
// previous. go-filesize already covers k/m/g; p (petabytes) is handled
// by a thin fallback since file sizes here can legitimately reach that
// range.
func parseSize(tok string) (uint64, error) {
	trimmed := strings.TrimSpace(tok)
	if trimmed == "" {
		return 0, fmt.Errorf("empty size value")
	}
	if v, err := strconv.ParseUint(trimmed, 10, 64); err == nil {
		return v, nil
	}

	last := trimmed[len(trimmed)-1]
	if last == 'p' || last == 'P' {
		n, err := strconv.ParseUint(trimmed[:len(trimmed)-1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid size %q", tok)
		}
		return n * 1024 * 1024 * 1024 * 1024 * 1024, nil
	}

	n, err := filesize.ParseSize(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", tok, err)
	}
	return uint64(n), nil
}

// parseTime accepts a decimal integer optionally suffixed by s/m/h/d
// (seconds/minutes/hours/days) and returns the duration.
func parseTime(tok string) (time.Duration, error) {
	trimmed := strings.TrimSpace(tok)
	if trimmed == "" {
		return 0, fmt.Errorf("empty time value")
	}
	if v, err := strconv.ParseUint(trimmed, 10, 64); err == nil {
		return time.Duration(v) * time.Second, nil
	}

	unit := trimmed[len(trimmed)-1]
	numPart := trimmed[:len(trimmed)-1]
	n, err := strconv.ParseUint(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", tok)
	}
	switch unit {
	case 's', 'S':
		return time.Duration(n) * time.Second, nil
	case 'm', 'M':
		return time.Duration(n) * time.Minute, nil
	case 'h', 'H':
		return time.Duration(n) * time.Hour, nil
	case 'd', 'D':
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid time suffix in %q", tok)
	}
}

// parseRange parses a "lo:hi[,lo:hi]" grammar into two Ranges (read, write).
// A single range replicates to both directions.
func parseRange(tok string) (Range, Range, error) {
	parts := strings.SplitN(tok, ",", 2)
	r0, err := parseOneRange(parts[0])
	if err != nil {
		return Range{}, Range{}, err
	}
	if len(parts) == 1 {
		return r0, r0, nil
	}
	r1, err := parseOneRange(parts[1])
	if err != nil {
		return Range{}, Range{}, err
	}
	return r0, r1, nil
}

func parseOneRange(tok string) (Range, error) {
	lohi := strings.SplitN(tok, ":", 2)
	if len(lohi) != 2 {
		return Range{}, fmt.Errorf("range %q must be lo:hi", tok)
	}
	lo, err := parseSize(lohi[0])
	if err != nil {
		return Range{}, err
	}
	hi, err := parseSize(lohi[1])
	if err != nil {
		return Range{}, err
	}
	return Range{Lo: lo, Hi: hi}, nil
}

// parseEnum matches tok against the whitelist, preferring the longest
// matching prefix (so "randread" wins over "read" before "randread" is
// even tried).
func parseEnum(tok string, whitelist []string) (string, error) {
	best := ""
	for _, v := range whitelist {
		if strings.HasPrefix(tok, v) && len(v) > len(best) {
			best = v
		}
	}
	if best == "" {
		return "", fmt.Errorf("%q is not one of %s", tok, strings.Join(whitelist, ", "))
	}
	return best, nil
}

// parseInt parses a bounded integer, honoring minval only when hasMin is
// set and maxval only when hasMax is set.
func parseInt(tok string, minval, maxval int64, hasMin, hasMax bool) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(tok), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", tok)
	}
	if hasMin && v < minval {
		return 0, fmt.Errorf("%d is below minimum %d", v, minval)
	}
	if hasMax && v > maxval {
		return 0, fmt.Errorf("%d is above maximum %d", v, maxval)
	}
	return v, nil
}

// parseBool parses a presence flag's optional argument. An empty token
// (bare "key" line, no "=value") means true.
func parseBool(tok string) (bool, error) {
	if tok == "" {
		return true, nil
	}
	return strconv.ParseBool(tok)
}
