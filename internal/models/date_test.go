package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseMessageDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Date
	}{
		{"iso with offset", "2025-10-02T03:43:14+00:00", "2025-10-02"},
		{"plain day", "2025-01-31", "2025-01-31"},
		{"rfc2822", "Mon, 03 Nov 2025 21:43:20 +0000", "2025-11-03"},
		{"rfc2822 single digit day", "Mon, 3 Nov 2025 21:43:20 +0000", "2025-11-03"},
		{"rfc2822 with zone comment", "Tue, 4 Nov 2025 08:00:00 -0800 (PST)", "2025-11-04"},
		{"no weekday", "4 Nov 2025 08:00:00 +0100", "2025-11-04"},
		{"empty", "", ""},
		{"garbage", "next tuesday-ish", ""},
		{"invalid iso day", "2025-13-45", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseMessageDate(tt.input); got != tt.expected {
				t.Errorf("ParseMessageDate(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDate_BeforeSortsUnknownLast(t *testing.T) {
	known := Date("2025-01-01")
	if !known.Before("") {
		t.Error("expected known date to sort before unknown")
	}
	if Date("").Before(known) {
		t.Error("expected unknown date not to sort before known")
	}
	if !Date("2024-12-31").Before(known) {
		t.Error("expected earlier date to sort first")
	}
}

func TestDate_AddDays(t *testing.T) {
	if got := Date("2025-02-28").AddDays(1); got != "2025-03-01" {
		t.Errorf("expected 2025-03-01, got %s", got)
	}
	if got := Date("").AddDays(1); got != "" {
		t.Errorf("expected unknown date to stay unknown, got %s", got)
	}
}

func TestDate_JSON(t *testing.T) {
	var payload struct {
		A Date `json:"a"`
		B Date `json:"b"`
		C Date `json:"c"`
		D Date `json:"d"`
	}
	input := `{"a":"2025-03-04","b":null,"c":"null","d":42}`
	if err := json.Unmarshal([]byte(input), &payload); err != nil {
		t.Fatalf("expected lenient decode, got %v", err)
	}
	if payload.A != "2025-03-04" || payload.B != "" || payload.C != "" || payload.D != "" {
		t.Errorf("unexpected decode result: %+v", payload)
	}

	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	expected := `{"a":"2025-03-04","b":null,"c":null,"d":null}`
	if string(out) != expected {
		t.Errorf("expected %s, got %s", expected, out)
	}
}

func TestDate_Scan(t *testing.T) {
	var d Date
	if err := d.Scan(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if d != "2025-06-01" {
		t.Errorf("expected 2025-06-01, got %s", d)
	}
	if err := d.Scan(nil); err != nil || d != "" {
		t.Errorf("expected nil to scan to unknown, got %q (%v)", d, err)
	}
	if err := d.Scan(3.5); err == nil {
		t.Error("expected error scanning float")
	}
}

func TestMinMaxDate(t *testing.T) {
	if got := MinDate("2025-03-01", "2025-01-01"); got != "2025-01-01" {
		t.Errorf("MinDate = %s", got)
	}
	if got := MinDate("", "2025-01-01"); got != "2025-01-01" {
		t.Errorf("MinDate with unknown = %s", got)
	}
	if got := MaxDate("2025-03-01", "2025-01-01"); got != "2025-03-01" {
		t.Errorf("MaxDate = %s", got)
	}
	if got := MaxDate("2025-03-01", ""); got != "2025-03-01" {
		t.Errorf("MaxDate with unknown = %s", got)
	}
}
