package classify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/vipul43/jobtrail/internal/models"
)

const (
	subjectKeyChars   = 60
	rejectionBodyChar = 500
)

var replyPrefixPattern = regexp.MustCompile(`^(re:|fwd:|fw:)\s*`)

var rejectionPhrases = []string{
	"regret to inform",
	"will not be moving forward",
	"not proceed",
	"unfortunately",
}

type dedupKey struct {
	subject   string
	rejection bool
}

// NormalizeSubject strips one reply or forward prefix, case-folds, and keeps
// the first 60 characters.
func NormalizeSubject(subject string) string {
	s := strings.ToLower(strings.TrimSpace(subject))
	s = strings.TrimSpace(replyPrefixPattern.ReplaceAllString(s, ""))
	if r := []rune(s); len(r) > subjectKeyChars {
		s = string(r[:subjectKeyChars])
	}
	return s
}

// IsRejection reports whether the start of the body carries a rejection phrase
func IsRejection(body string) bool {
	text := strings.ToLower(prefix(body, rejectionBodyChar))
	for _, phrase := range rejectionPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// Deduplicate keeps the first message for every (normalized subject, rejection)
// pair. A rejection sharing a subject with an earlier notification survives
// as its own event. Relative order is preserved.
func Deduplicate(msgs []models.Message) []models.Message {
	seen := make(map[dedupKey]struct{}, len(msgs))
	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		key := dedupKey{subject: NormalizeSubject(m.Subject), rejection: IsRejection(m.Body)}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return out
}

// SortByDate orders messages oldest first. Unknown dates sort last and ties keep input order.
func SortByDate(msgs []models.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Date.Before(msgs[j].Date)
	})
}

// Prepare sorts, drops noise, and deduplicates a fetched batch
func Prepare(msgs []models.Message) []models.Message {
	sorted := append([]models.Message(nil), msgs...)
	SortByDate(sorted)
	return Deduplicate(FilterNoise(sorted))
}
