package bot

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Sternrassler/patreon-roster/pkg/roster"
)

// MaxMessageLength is Discord's limit for a single message, in characters.
const MaxMessageLength = 2000

// FormatRoster renders one line per patron, split into messages that each
// fit MaxMessageLength. Lines are never split across messages.
func FormatRoster(patrons []roster.Patron) []string {
	lines := make([]string, 0, len(patrons)+1)
	lines = append(lines, fmt.Sprintf("**Patrons (%d)**", len(patrons)))
	for _, p := range patrons {
		lines = append(lines, formatPatron(p))
	}
	return chunkLines(lines, MaxMessageLength)
}

func formatPatron(p roster.Patron) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: tier %d, total %d", p.Name, p.Payment, p.Total)
	if p.DiscordID != nil {
		fmt.Fprintf(&b, ", <@%d>", *p.DiscordID)
	}
	if p.Declined {
		b.WriteString(" (declined)")
	}
	return b.String()
}

// chunkLines joins lines with newlines into chunks of at most limit runes.
// A single line over the limit is truncated.
func chunkLines(lines []string, limit int) []string {
	var (
		chunks  []string
		current strings.Builder
		size    int
	)

	for _, line := range lines {
		line = truncate(line, limit)
		n := utf8.RuneCountInString(line)

		if size > 0 && size+1+n > limit {
			chunks = append(chunks, current.String())
			current.Reset()
			size = 0
		}
		if size > 0 {
			current.WriteByte('\n')
			size++
		}
		current.WriteString(line)
		size += n
	}

	if size > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
