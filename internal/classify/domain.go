package classify

import (
	"regexp"
	"strings"
)

var (
	angleAddressPattern = regexp.MustCompile(`<([^<>]*)>`)
	domainPattern       = regexp.MustCompile(`@([^>\s"']+)`)
)

// ExtractDomain returns the lower-cased domain of a From header such as
// `"Display Name" <user@mail.example.com>`. Malformed input yields "".
func ExtractDomain(from string) string {
	addr := from
	if m := angleAddressPattern.FindAllStringSubmatch(from, -1); len(m) > 0 {
		addr = m[len(m)-1][1]
	}

	m := domainPattern.FindStringSubmatch(addr)
	if m == nil {
		return ""
	}
	return strings.Trim(strings.ToLower(m[1]), `<>"'.`)
}
