package view

import (
	"fmt"
	"time"
)

// TrimText cuts s to max characters, appending an ellipsis when trimmed.
func TrimText(max int, s string) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// FormatTime renders a second count as m:ss with zero-padded seconds.
func FormatTime(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormatDate renders a wall-clock time for the status panel.
func FormatDate(t time.Time) string {
	return t.Format("15:04:05")
}
