package synth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vipul43/jobtrail/internal/llm"
	"github.com/vipul43/jobtrail/internal/models"
)

// ErrMalformedOutput is returned when a model reply has no usable JSON object
var ErrMalformedOutput = errors.New("malformed model output")

// Boilerplate the model sometimes returns instead of a job title
var badPositionPatterns = []string{
	"job title",
	"actual job title",
	"empty string",
	"role at",
	"thank you for",
	"we've received",
	"we have received",
	"your application",
	"application received",
}

// ParseExtraction decodes a model reply into extracted positions. Both the
// {"positions":[...]} form and a bare single-position object are accepted.
// Array items that are not objects are skipped.
func ParseExtraction(text string) ([]models.ExtractedPosition, error) {
	obj := llm.ExtractObject(text)
	if obj == "" {
		return nil, ErrMalformedOutput
	}

	var envelope struct {
		Positions json.RawMessage    `json:"positions"`
		Position  models.LooseString `json:"position"`
	}
	if err := json.Unmarshal([]byte(obj), &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	var items []json.RawMessage
	if len(envelope.Positions) > 0 {
		// a non-array "positions" value is treated as no positions
		_ = json.Unmarshal(envelope.Positions, &items)
	}

	var out []models.ExtractedPosition
	for _, item := range items {
		var p models.ExtractedPosition
		if err := json.Unmarshal(item, &p); err != nil {
			continue
		}
		out = append(out, p)
	}

	if len(out) == 0 && envelope.Position != "" {
		var p models.ExtractedPosition
		if err := json.Unmarshal([]byte(obj), &p); err == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

// Normalize turns untrusted extracted positions into position records.
// Boilerplate titles are blanked. Only the first position falls back to
// pre-detected dates and the pre-detected interview count.
func Normalize(extracted []models.ExtractedPosition, pre PreDetected) []models.PositionRecord {
	out := make([]models.PositionRecord, 0, len(extracted))
	for i, p := range extracted {
		first := i == 0
		fallback := func(got models.Date, label models.StageLabel) models.Date {
			if got.IsZero() && first {
				return pre.First(label)
			}
			return got
		}

		interviews := int(p.HumanInterviews)
		if interviews == 0 && first {
			interviews = len(pre.InterviewDates)
		}

		out = append(out, models.PositionRecord{
			Position:            cleanTitle(string(p.Position)),
			SubmittedDate:       fallback(p.Applied, models.StageSubmitted),
			AptitudeTestDate:    fallback(p.AptitudeTest, models.StageAptitudeTest),
			SimulationTestDate:  fallback(p.SimulationTest, models.StageSimulationTest),
			CodingTestDate:      fallback(p.CodingTest, models.StageCodingTest),
			VideoInterviewDate:  fallback(p.VideoInterview, models.StageVideoInterview),
			HumanInterviewCount: interviews,
			Outcome:             models.ParseOutcome(string(p.Status)),
		})
	}
	return out
}

func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	lower := strings.ToLower(title)
	for _, bad := range badPositionPatterns {
		if strings.Contains(lower, bad) {
			return ""
		}
	}
	return title
}
