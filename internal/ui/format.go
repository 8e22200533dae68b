package ui

import (
	"fmt"
	"time"
)

// RelativeTime returns a human-friendly relative time string.
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}

// Distance formats a distance in kilometres.
func Distance(km float64) string {
	switch {
	case km <= 0:
		return ""
	case km < 1:
		return fmt.Sprintf("%d m", int(km*1000))
	default:
		return fmt.Sprintf("%.1f km", km)
	}
}

// Severity returns a short label for an alert severity.
func Severity(s string) string {
	if s == "" {
		return "INFO"
	}
	return s
}
