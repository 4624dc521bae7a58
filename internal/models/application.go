package models

import "strings"

// Outcome is the final state of one position
type Outcome string

const (
	OutcomePending  Outcome = "pending"
	OutcomeRejected Outcome = "rejected"
	OutcomeOffer    Outcome = "offer"
)

// ParseOutcome maps free text onto an Outcome; anything unrecognized is pending
func ParseOutcome(s string) Outcome {
	switch Outcome(strings.ToLower(strings.TrimSpace(s))) {
	case OutcomeOffer:
		return OutcomeOffer
	case OutcomeRejected:
		return OutcomeRejected
	default:
		return OutcomePending
	}
}

// PositionRecord is the timeline of one application at one company
type PositionRecord struct {
	Position            string  `json:"position"`
	SubmittedDate       Date    `json:"application_submitted"`
	AptitudeTestDate    Date    `json:"aptitude_test"`
	SimulationTestDate  Date    `json:"simulation_test"`
	CodingTestDate      Date    `json:"coding_test"`
	VideoInterviewDate  Date    `json:"video_interview"`
	HumanInterviewCount int     `json:"num_human_interview"`
	Outcome             Outcome `json:"outcome"`
	Manual              bool    `json:"manual,omitempty"`
}

// PositionKey identifies an automatically classified position for de-duplication
type PositionKey struct {
	Title     string
	Submitted Date
}

// Key returns the identity of the position: lower-cased title plus submission date
func (p PositionRecord) Key() PositionKey {
	return PositionKey{
		Title:     strings.ToLower(strings.TrimSpace(p.Position)),
		Submitted: p.SubmittedDate,
	}
}

// CompanyRecord groups the positions a user applied to at one employer.
// Name keeps its display casing; identity is case-insensitive.
type CompanyRecord struct {
	Name       string           `json:"name"`
	Positions  []PositionRecord `json:"positions"`
	EmailCount int              `json:"email_count"`
	Manual     bool             `json:"manual,omitempty"`
}

// NameKey returns the case-insensitive identity of the company
func (c CompanyRecord) NameKey() string {
	return CompanyKey(c.Name)
}

// CompanyKey normalizes a company name for identity comparison
func CompanyKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Clone returns a deep copy so callers can mutate positions freely
func (c CompanyRecord) Clone() CompanyRecord {
	out := c
	out.Positions = append([]PositionRecord(nil), c.Positions...)
	return out
}

// Totals summarizes a company list
type Totals struct {
	Companies    int `json:"total_companies"`
	Applications int `json:"total_applications"`
}

// ComputeTotals counts companies and positions across companies
func ComputeTotals(companies []CompanyRecord) Totals {
	t := Totals{Companies: len(companies)}
	for _, c := range companies {
		t.Applications += len(c.Positions)
	}
	return t
}

// CloneCompanies deep-copies a company list
func CloneCompanies(companies []CompanyRecord) []CompanyRecord {
	if companies == nil {
		return nil
	}
	out := make([]CompanyRecord, len(companies))
	for i, c := range companies {
		out[i] = c.Clone()
	}
	return out
}
