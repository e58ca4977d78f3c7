package view

import (
	"testing"
	"time"
)

func TestTrimText(t *testing.T) {
	if got := TrimText(10, "hello"); got != "hello" {
		t.Fatalf("expected untouched text, got %q", got)
	}
	if got := TrimText(5, "hello world"); got != "hello..." {
		t.Fatalf("expected trimmed text with ellipsis, got %q", got)
	}
	if got := TrimText(5, "hello"); got != "hello" {
		t.Fatalf("exact length must not gain an ellipsis, got %q", got)
	}
}

func TestFormatTime(t *testing.T) {
	if got := FormatTime(72); got != "1:12" {
		t.Fatalf("expected 1:12, got %q", got)
	}
	if got := FormatTime(5); got != "0:05" {
		t.Fatalf("expected 0:05, got %q", got)
	}
	if got := FormatTime(0); got != "0:00" {
		t.Fatalf("expected 0:00, got %q", got)
	}
	if got := FormatTime(-3); got != "0:00" {
		t.Fatalf("negative seconds must clamp, got %q", got)
	}
}

func TestFormatDate(t *testing.T) {
	at := time.Date(2025, time.November, 5, 9, 3, 7, 0, time.UTC)
	if got := FormatDate(at); got != "09:03:07" {
		t.Fatalf("expected 09:03:07, got %q", got)
	}
}
