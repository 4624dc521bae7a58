package synth

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vipul43/jobtrail/internal/classify"
	"github.com/vipul43/jobtrail/internal/models"
)

// MaxBatchMessages bounds how many messages are shown to the model per company
const MaxBatchMessages = 15

const (
	bodyPreviewChars  = 300
	domainColumnChars = 25
	subjectChars      = 80
)

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	footerPattern     = regexp.MustCompile(`(?is)(unsubscribe|privacy policy|terms of service|view in browser).*`)
	urlPattern        = regexp.MustCompile(`https?://\S+`)
	senderPattern     = regexp.MustCompile(`@([^>\s]+)`)
)

// CleanBody collapses whitespace, cuts mail footers, masks links, and
// shortens the text for the prompt.
func CleanBody(body string) string {
	text := strings.TrimSpace(whitespacePattern.ReplaceAllString(body, " "))
	text = strings.TrimSpace(footerPattern.ReplaceAllString(text, ""))
	text = urlPattern.ReplaceAllString(text, "[link]")
	if r := []rune(text); len(r) > bodyPreviewChars {
		text = string(r[:bodyPreviewChars]) + "..."
	}
	return text
}

// FormatCompact renders one line per message as
// "date | domain | subject [stages]" with an indented body preview.
func FormatCompact(msgs []models.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		date := m.Date.String()
		if date == "" {
			date = "?"
		}

		domain := "?"
		if match := senderPattern.FindStringSubmatch(m.From); match != nil {
			domain = truncate(match[1], domainColumnChars)
		}

		line := fmt.Sprintf("%s | %s | %s", date, domain, truncate(m.Subject, subjectChars))
		if stages := classify.DetectStages(m); !stages.Empty() {
			line += " [" + stages.String() + "]"
		}
		if body := CleanBody(m.Body); body != "" {
			line += "\n   Body: " + body
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}
