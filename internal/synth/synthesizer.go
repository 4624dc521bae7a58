// Package synth shapes per-company message batches for the language model and
// normalizes what comes back into position records.
package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/vipul43/jobtrail/internal/classify"
	"github.com/vipul43/jobtrail/internal/llm"
	"github.com/vipul43/jobtrail/internal/models"
)

const (
	maxCompanyLines     = 100
	companySubjectChars = 160
	analysisTemperature = 0.1
)

// Synthesizer asks a language model to turn message batches into positions
type Synthesizer struct {
	completer llm.Completer
}

// New creates a Synthesizer backed by completer
func New(completer llm.Completer) *Synthesizer {
	return &Synthesizer{completer: completer}
}

// ExtractPositions builds the prompt for one company's prepared messages and
// normalizes the reply. A transport failure is returned as an error; a reply
// that cannot be parsed yields no positions.
func (s *Synthesizer) ExtractPositions(ctx context.Context, company string, msgs []models.Message) ([]models.PositionRecord, error) {
	if len(msgs) == 0 {
		return nil, nil
	}

	pre := PreDetect(msgs)
	batch := msgs
	if len(batch) > MaxBatchMessages {
		batch = batch[:MaxBatchMessages]
	}

	text, err := s.completer.Complete(ctx, llm.Request{
		System:      analysisSystem,
		Prompt:      analysisPrompt(company, FormatCompact(batch), pre.Hints()),
		Temperature: llm.Temperature(analysisTemperature),
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to analyze %s: %w", company, err)
	}

	extracted, err := ParseExtraction(text)
	if err != nil {
		log.Printf("Warning: discarding model output for %s: %v", company, err)
		return nil, nil
	}
	return Normalize(extracted, pre), nil
}

// ApplicationLines reduces broad-query results to unique "domain | subject"
// lines, one per distinct (sender, subject) pair, in input order.
func ApplicationLines(msgs []models.Message) []string {
	type key struct{ from, subject string }
	seen := make(map[key]struct{}, len(msgs))

	var lines []string
	for _, m := range msgs {
		from := strings.TrimSpace(m.From)
		subject := strings.TrimSpace(m.Subject)
		if from == "" || subject == "" {
			continue
		}
		k := key{strings.ToLower(from), strings.ToLower(subject)}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		lines = append(lines, fmt.Sprintf("%s | %s", classify.ExtractDomain(from), truncate(subject, companySubjectChars)))
	}
	return lines
}

// DetectCompanies asks the model which employers the application lines
// mention, then asks it to clean that list. If the cleaning call fails the
// raw list is used. At most limit unique names are returned.
func (s *Synthesizer) DetectCompanies(ctx context.Context, lines []string, limit int) ([]string, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	if len(lines) > maxCompanyLines {
		lines = lines[:maxCompanyLines]
	}

	text, err := s.completer.Complete(ctx, llm.Request{
		System: companyExtractSystem,
		Prompt: companyExtractPrompt(lines),
		JSON:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to extract companies: %w", err)
	}

	raw, ok := parseNameList(text, "companies_applied")
	if !ok {
		log.Printf("Warning: company extraction returned no usable list")
	}
	raw = uniqueNames(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	companies := raw
	cleaned, err := s.completer.Complete(ctx, llm.Request{
		System: companyCleanSystem,
		Prompt: companyCleanPrompt(raw),
		JSON:   true,
	})
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("Warning: failed to clean company names, using raw list: %v", err)
	default:
		if list, ok := parseNameList(cleaned, "clean_companies"); ok {
			companies = uniqueNames(list)
		}
	}

	if limit > 0 && len(companies) > limit {
		companies = companies[:limit]
	}
	return companies, nil
}

// parseNameList reads a string array under key. ok is false when the reply
// has no object or the key is missing.
func parseNameList(text, key string) ([]string, bool) {
	obj := llm.ExtractObject(text)
	if obj == "" {
		return nil, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return nil, false
	}
	rawList, ok := fields[key]
	if !ok {
		return nil, false
	}

	var items []models.LooseString
	if err := json.Unmarshal(rawList, &items); err != nil {
		return nil, false
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, string(item))
	}
	return names, true
}

// uniqueNames trims names and drops blanks and case-insensitive repeats
func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := models.CompanyKey(n)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}
