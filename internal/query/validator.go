package query

import (
	"strings"

	"github.com/vipul43/jobtrail/internal/classify"
	"github.com/vipul43/jobtrail/internal/models"
)

const (
	validateBodyChars = 1000
	textTokenMin      = 4
)

// Validate keeps the messages that plausibly concern company. Mail from an
// applicant-tracking domain must name the company in its subject or body;
// other mail must name it in the subject or come from a matching domain.
func Validate(company string, msgs []models.Message) []models.Message {
	name := strings.ToLower(strings.TrimSpace(company))
	tokens := MeaningfulTokens(company)

	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		subject := strings.ToLower(m.Subject)
		domain := classify.ExtractDomain(m.From)

		subjectMatch := mentions(subject, name, tokens)
		if IsATSDomain(domain) {
			if subjectMatch || mentions(strings.ToLower(bodyPrefix(m.Body)), name, tokens) {
				out = append(out, m)
			}
			continue
		}
		if subjectMatch || anyTokenIn(domain, tokens, domainTokenMin) {
			out = append(out, m)
		}
	}
	return out
}

func mentions(text, name string, tokens []string) bool {
	if name != "" && strings.Contains(text, name) {
		return true
	}
	return anyTokenIn(text, tokens, textTokenMin)
}

func bodyPrefix(body string) string {
	r := []rune(body)
	if len(r) > validateBodyChars {
		return string(r[:validateBodyChars])
	}
	return body
}
