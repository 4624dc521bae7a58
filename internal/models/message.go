package models

// MaxBodyLength bounds the body text kept per message
const MaxBodyLength = 4000

// Message is one fetched mail item. It is never modified after fetch.
type Message struct {
	ID      string `json:"id"`
	From    string `json:"from_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Date    Date   `json:"date"`
}

// NewMessage builds a Message, truncating the body to MaxBodyLength bytes
// on a rune boundary.
func NewMessage(id, from, subject, body string, date Date) Message {
	return Message{
		ID:      id,
		From:    from,
		Subject: subject,
		Body:    truncateRunes(body, MaxBodyLength),
		Date:    date,
	}
}

func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
