package query

import (
	"regexp"
	"strings"
)

// Words that say nothing about which employer a name refers to
var genericTokens = map[string]struct{}{
	"group": {}, "teams": {}, "page": {}, "career": {}, "careers": {}, "jobs": {}, "job": {},
	"recruit": {}, "recruiting": {}, "recruitment": {}, "talent": {}, "hr": {}, "hiring": {},
	"global": {}, "international": {}, "asia": {}, "apac": {}, "hk": {}, "hong": {}, "kong": {},
	"limited": {}, "ltd": {}, "inc": {}, "corp": {}, "corporation": {}, "company": {},
	"graduate": {}, "analyst": {}, "engineer": {}, "program": {}, "programme": {},
}

// ATSDomains lists applicant-tracking sender domains seen in practice
var ATSDomains = []string{
	"workday.com", "myworkday.com", "greenhouse.io", "greenhouse-mail.io",
	"lever.co", "hire.lever.co", "tal.net", "brassring.com",
	"hackerrankforwork.com", "hirevue.com", "hirevue-app.eu",
}

// Vendor markers for shared sender domains that never identify the employer.
// tal.net hosts per-employer subdomains, so it is only treated as ATS once mail is fetched.
var (
	sharedVendorMarkers = []string{"workday", "greenhouse", "lever", "brassring", "hirevue", "hackerrank"}
	atsMarkers          = append(append([]string(nil), sharedVendorMarkers...), "tal.net")
)

var tokenSplitPattern = regexp.MustCompile(`[\s,\-_/&.]+`)

// IsGeneric reports whether token is on the generic stop-list
func IsGeneric(token string) bool {
	_, ok := genericTokens[token]
	return ok
}

// Tokenize splits a lower-cased name on whitespace and punctuation, dropping
// single-character tokens.
func Tokenize(name string) []string {
	var tokens []string
	for _, t := range tokenSplitPattern.Split(strings.ToLower(strings.TrimSpace(name)), -1) {
		if len(t) > 1 {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// SearchTokens are the tokens used to build a search: non-generic tokens, or
// the collapsed name when every token is generic.
func SearchTokens(name string) []string {
	var out []string
	for _, t := range Tokenize(name) {
		if !IsGeneric(t) {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		collapsed := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "")
		if collapsed != "" {
			out = []string{collapsed}
		}
	}
	return out
}

// MeaningfulTokens are the non-generic tokens longer than two characters used
// to validate fetched mail.
func MeaningfulTokens(name string) []string {
	var out []string
	for _, t := range Tokenize(name) {
		if len(t) > 2 && !IsGeneric(t) {
			out = append(out, t)
		}
	}
	return out
}

// IsSharedVendorDomain reports whether a domain belongs to a vendor that sends
// on behalf of many employers under one domain.
func IsSharedVendorDomain(domain string) bool {
	return containsAny(domain, sharedVendorMarkers)
}

// IsATSDomain reports whether a sender domain belongs to an applicant-tracking system
func IsATSDomain(domain string) bool {
	if containsAny(domain, atsMarkers) {
		return true
	}
	for _, d := range ATSDomains {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// anyTokenIn reports whether s contains a token of at least minLen bytes
func anyTokenIn(s string, tokens []string, minLen int) bool {
	for _, t := range tokens {
		if len(t) >= minLen && strings.Contains(s, t) {
			return true
		}
	}
	return false
}
