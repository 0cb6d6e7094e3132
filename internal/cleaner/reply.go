package cleaner

import "strings"

// Reply texts posted by the bot
const (
	ReplyNothingFound = "Es wurden keine Links mit Tracking gefunden."
	replySingle       = "Hier der Link ohne Tracking:\n"
	replyMultiple     = "Hier die Links ohne Tracking:\n"
)

// Reply builds the comment text for a set of cleaned links
func Reply(links []string) string {
	if len(links) == 0 {
		return ReplyNothingFound
	}

	var b strings.Builder
	if len(links) == 1 {
		b.WriteString(replySingle)
	} else {
		b.WriteString(replyMultiple)
	}

	for _, link := range links {
		b.WriteString("- ")
		b.WriteString(link)
		b.WriteString("\n")
	}
	return b.String()
}
