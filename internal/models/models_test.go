package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestStageLabel_NamesCoverEveryLabel(t *testing.T) {
	seen := make(map[string]bool)
	for _, s := range AllStages() {
		name := s.String()
		if name == "" || name == "unknown" {
			t.Errorf("stage %d has no name", s)
		}
		if seen[name] {
			t.Errorf("duplicate stage name %q", name)
		}
		seen[name] = true
	}
	if len(seen) != NumStages {
		t.Errorf("expected %d names, got %d", NumStages, len(seen))
	}
}

func TestStageSet(t *testing.T) {
	var set StageSet
	if !set.Empty() {
		t.Fatal("expected empty set")
	}
	set = set.Add(StageRejection).Add(StageSubmitted).Add(StageRejection)

	if !set.Has(StageSubmitted) || !set.Has(StageRejection) || set.Has(StageOffer) {
		t.Errorf("unexpected membership: %s", set)
	}
	if got := set.String(); got != "submitted,rejection" {
		t.Errorf("expected detection order, got %s", got)
	}
}

func TestParseOutcome(t *testing.T) {
	tests := map[string]Outcome{
		"offer":    OutcomeOffer,
		"Rejected": OutcomeRejected,
		"pending":  OutcomePending,
		"":         OutcomePending,
		"ghosted":  OutcomePending,
	}
	for input, expected := range tests {
		if got := ParseOutcome(input); got != expected {
			t.Errorf("ParseOutcome(%q) = %s, want %s", input, got, expected)
		}
	}
}

func TestPositionRecord_Key(t *testing.T) {
	a := PositionRecord{Position: "Data Analyst ", SubmittedDate: "2025-01-02"}
	b := PositionRecord{Position: "data analyst", SubmittedDate: "2025-01-02"}
	if a.Key() != b.Key() {
		t.Errorf("expected keys to match: %+v vs %+v", a.Key(), b.Key())
	}
}

func TestCacheEntry_RecountAndClone(t *testing.T) {
	entry := &CacheEntry{
		UserID: "me@example.com",
		Companies: CompanyList{
			{Name: "Acme", Positions: []PositionRecord{{Position: "A"}, {Position: "B"}}},
			{Name: "Globex", Positions: []PositionRecord{{Position: "C"}}},
		},
		TotalCompanies: 99,
	}
	if err := entry.BeforeSave(nil); err != nil {
		t.Fatalf("BeforeSave: %v", err)
	}
	if entry.TotalCompanies != 2 || entry.TotalApplications != 3 {
		t.Errorf("expected totals 2/3, got %d/%d", entry.TotalCompanies, entry.TotalApplications)
	}

	clone := entry.Clone()
	clone.Companies[0].Positions[0].Position = "changed"
	if entry.Companies[0].Positions[0].Position != "A" {
		t.Error("expected clone to be independent of the original")
	}
}

func TestCompanyList_ValueScan(t *testing.T) {
	list := CompanyList{{Name: "Acme", Positions: []PositionRecord{{Position: "Analyst", Outcome: OutcomePending}}}}
	v, err := list.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var decoded CompanyList
	if err := decoded.Scan(v); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Positions[0].Position != "Analyst" {
		t.Errorf("unexpected decoded list: %+v", decoded)
	}
	if err := decoded.Scan(12); err == nil {
		t.Error("expected error scanning an int")
	}
}

func TestExtractedPosition_LenientDecode(t *testing.T) {
	input := `{"position":"null","applied":"2025-02-01","coding_test":"n/a","human_interviews":"2","status":null}`
	var p ExtractedPosition
	if err := json.Unmarshal([]byte(input), &p); err != nil {
		t.Fatalf("expected lenient decode, got %v", err)
	}
	if p.Position != "" {
		t.Errorf("expected literal null title to collapse, got %q", p.Position)
	}
	if p.Applied != "2025-02-01" || p.CodingTest != "" {
		t.Errorf("unexpected dates: %+v", p)
	}
	if p.HumanInterviews != 2 {
		t.Errorf("expected 2 interviews, got %d", p.HumanInterviews)
	}

	var neg ExtractedPosition
	_ = json.Unmarshal([]byte(`{"human_interviews":-3}`), &neg)
	if neg.HumanInterviews != 0 {
		t.Errorf("expected negative count to clamp to 0, got %d", neg.HumanInterviews)
	}
}

func TestAccount_Tokens(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	access, refresh := "a", "r"
	soon := now.Add(2 * time.Minute)
	later := now.Add(time.Hour)

	acc := &Account{AccessToken: &access, RefreshToken: &refresh, AccessTokenExpiresAt: &later}
	if !acc.HasTokens() {
		t.Error("expected tokens present")
	}
	if acc.AccessTokenExpired(now) {
		t.Error("expected token valid for an hour")
	}

	acc.AccessTokenExpiresAt = &soon
	if !acc.AccessTokenExpired(now) {
		t.Error("expected token inside the margin to count as expired")
	}

	acc.AccessTokenExpiresAt = nil
	if !acc.AccessTokenExpired(now) {
		t.Error("expected missing expiry to count as expired")
	}

	if (&Account{AccessToken: &access}).HasTokens() {
		t.Error("expected missing refresh token to fail HasTokens")
	}
}

func TestNewMessage_TruncatesBody(t *testing.T) {
	body := make([]byte, MaxBodyLength+10)
	for i := range body {
		body[i] = 'x'
	}
	m := NewMessage("1", "a@b.com", "s", string(body), "2025-01-01")
	if len(m.Body) != MaxBodyLength {
		t.Errorf("expected body of %d bytes, got %d", MaxBodyLength, len(m.Body))
	}

	// a multi-byte rune straddling the limit is dropped, not split
	prefix := make([]byte, MaxBodyLength-1)
	for i := range prefix {
		prefix[i] = 'y'
	}
	m = NewMessage("2", "", "", string(prefix)+"é", "")
	if len(m.Body) != MaxBodyLength-1 {
		t.Errorf("expected rune boundary cut at %d, got %d", MaxBodyLength-1, len(m.Body))
	}
}

func TestWindow_Empty(t *testing.T) {
	tests := []struct {
		name     string
		window   Window
		expected bool
	}{
		{"single day", Window{Start: "2025-06-01", End: "2025-06-01"}, false},
		{"exclusive single day", Window{Start: "2025-06-01", End: "2025-06-01", EndExclusive: true}, true},
		{"inverted", Window{Start: "2030-01-01", End: "2025-09-01"}, true},
		{"open end", Window{Start: "2025-06-01"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.window.Empty(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
