package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatRange renders an audio segment as MM:SS-MM:SS. Minutes are not
// wrapped at an hour so long recordings stay sortable.
func FormatRange(start, end time.Duration) string {
	return formatClock(start) + "-" + formatClock(end)
}

func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// ParseStart returns the start offset of a range ("00:05-00:10") or a point
// ("00:05.250"). An HH:MM:SS prefix is accepted too.
func ParseStart(ts string) (time.Duration, error) {
	ts = strings.TrimSpace(ts)
	if i := strings.Index(ts, "-"); i >= 0 {
		ts = strings.TrimSpace(ts[:i])
	}

	fields := strings.Split(ts, ":")
	if len(fields) < 2 || len(fields) > 3 {
		return 0, fmt.Errorf("unrecognized timestamp %q", ts)
	}

	seconds, err := strconv.ParseFloat(fields[len(fields)-1], 64)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("unrecognized timestamp %q", ts)
	}

	var minutes int
	multiplier := 1
	for i := len(fields) - 2; i >= 0; i-- {
		n, err := strconv.Atoi(fields[i])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("unrecognized timestamp %q", ts)
		}
		minutes += n * multiplier
		multiplier *= 60
	}

	return time.Duration(minutes)*time.Minute + time.Duration(seconds*float64(time.Second)), nil
}

// Ascending reports whether every item starts strictly after the previous one.
// Items whose timestamp cannot be parsed make the transcript non-ascending.
func (t Transcript) Ascending() bool {
	var prev time.Duration
	for i, item := range t {
		start, err := ParseStart(item.Timestamp)
		if err != nil {
			return false
		}
		if i > 0 && start <= prev {
			return false
		}
		prev = start
	}
	return true
}
