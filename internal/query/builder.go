package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vipul43/jobtrail/internal/classify"
	"github.com/vipul43/jobtrail/internal/models"
)

const (
	gmailDateLayout = "2006/01/02"
	domainTokenMin  = 3
)

// Coding-assessment vendors that put the employer name in the subject
var assessmentVendors = []string{"hackerrankforwork.com", "codility.com"}

// DateFilter renders a window as Gmail after:/before: terms with a leading space.
// Gmail's before: is exclusive, so an inclusive end is pushed one day later.
func DateFilter(w models.Window) string {
	var b strings.Builder
	if !w.Start.IsZero() {
		fmt.Fprintf(&b, " after:%s", w.Start.Time().Format(gmailDateLayout))
	}
	if !w.End.IsZero() {
		end := w.End
		if !w.EndExclusive {
			end = end.AddDays(1)
		}
		fmt.Fprintf(&b, " before:%s", end.Time().Format(gmailDateLayout))
	}
	return b.String()
}

// Broad is the first-pass query for any application-related mail in the window
func Broad(w models.Window) string {
	return `subject:("application" OR "applying" OR "apply" OR "applied") in:inbox` + DateFilter(w)
}

// Build returns a Gmail search scoped to one company. It matches the exact name
// or its first two tokens in the subject, any employer-specific sender domain
// seen in refMsgs, and assessment vendor mail naming the company. Bodies are
// never searched server-side; Validate handles that after fetch.
func Build(company string, refMsgs []models.Message, w models.Window) string {
	company = strings.TrimSpace(company)
	tokens := SearchTokens(company)
	phrase := quote(company)

	parts := []string{"subject:" + phrase}

	switch {
	case len(tokens) >= 2:
		parts = append(parts, fmt.Sprintf("(subject:%s subject:%s)", tokens[0], tokens[1]))
	case len(tokens) == 1:
		parts = append(parts, "subject:"+tokens[0])
	}

	if domains := companyDomains(refMsgs, tokens); len(domains) > 0 {
		from := make([]string, len(domains))
		for i, d := range domains {
			from[i] = "from:" + d
		}
		parts = append(parts, "("+strings.Join(from, " OR ")+")")
	}

	for _, vendor := range assessmentVendors {
		parts = append(parts, fmt.Sprintf("(from:%s subject:%s)", vendor, phrase))
	}

	return "(" + strings.Join(parts, " OR ") + ") in:inbox" + DateFilter(w)
}

// companyDomains collects sender domains from refMsgs that contain a token
// and are not shared vendor domains, sorted for a stable query.
func companyDomains(refMsgs []models.Message, tokens []string) []string {
	seen := make(map[string]struct{})
	for _, m := range refMsgs {
		domain := classify.ExtractDomain(m.From)
		if domain == "" || IsSharedVendorDomain(domain) {
			continue
		}
		if anyTokenIn(domain, tokens, domainTokenMin) {
			seen[domain] = struct{}{}
		}
	}

	domains := make([]string, 0, len(seen))
	for d := range seen {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, "") + `"`
}
