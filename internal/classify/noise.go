package classify

import (
	"regexp"

	"github.com/vipul43/jobtrail/internal/models"
)

// Senders and subjects that never carry application signal
var noisePatterns = compileAll(
	`zendesk\.com`,
	`Ticket\s*#\d+`,
	`We are waiting for your response`,
	`theforage\.com.*Build skills`,
	`Your Cluely Digest`,
	`Latest.*jobs.*in`,
	`New jobs for:`,
	`Welcome to .* Office$`,
	`Event Reminder`,
	`Your registration for Virtual`,
	`days left to complete`,
	`credly\.com`,
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// IsNoise reports whether subject plus sender matches a known non-signal pattern
func IsNoise(m models.Message) bool {
	text := m.Subject + " " + m.From
	for _, re := range noisePatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// FilterNoise drops noise messages, keeping the order of the rest
func FilterNoise(msgs []models.Message) []models.Message {
	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if !IsNoise(m) {
			out = append(out, m)
		}
	}
	return out
}
