package synth

import (
	"fmt"

	"github.com/vipul43/jobtrail/internal/classify"
	"github.com/vipul43/jobtrail/internal/models"
)

// PreDetected holds the stage dates found by pattern matching alone. They
// fill gaps the model leaves in the first position it returns.
type PreDetected struct {
	first          [models.NumStages]models.Date
	InterviewDates []models.Date
}

// PreDetect scans date-sorted messages and records the first dated
// occurrence of every stage plus each distinct human-interview day.
func PreDetect(msgs []models.Message) PreDetected {
	var pre PreDetected
	seenInterview := make(map[models.Date]struct{})

	for _, m := range msgs {
		if m.Date.IsZero() {
			continue
		}
		for _, label := range classify.DetectStages(m).Labels() {
			if label == models.StageHumanInterview {
				if _, ok := seenInterview[m.Date]; !ok {
					seenInterview[m.Date] = struct{}{}
					pre.InterviewDates = append(pre.InterviewDates, m.Date)
				}
				continue
			}
			if pre.first[label].IsZero() {
				pre.first[label] = m.Date
			}
		}
	}
	return pre
}

// First returns the first date a label was seen, or the zero Date
func (p PreDetected) First(label models.StageLabel) models.Date {
	if int(label) >= models.NumStages {
		return ""
	}
	return p.first[label]
}

// Hints are the outcome lines passed to the model with the batch
func (p PreDetected) Hints() []string {
	var hints []string
	if d := p.First(models.StageRejection); !d.IsZero() {
		hints = append(hints, fmt.Sprintf("REJECTION detected on %s", d))
	}
	if d := p.First(models.StageOffer); !d.IsZero() {
		hints = append(hints, fmt.Sprintf("OFFER detected on %s", d))
	}
	return hints
}
