package engine

import (
	"strings"
)

const (
	titleSentenceMax = 60
	titleTruncateAt  = 50
	previewMax       = 120
)

// stripMarkup flattens wire markup into plain text: angle-bracket tokens
// (<@U..>, <#C..|name>, <url|label>) reduce to their label, formatting
// sigils drop, and whitespace collapses to single spaces.
func stripMarkup(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch != '<' {
			b.WriteByte(ch)
			continue
		}
		end := strings.IndexByte(text[i:], '>')
		if end < 0 {
			b.WriteByte(ch)
			continue
		}
		inner := text[i+1 : i+end]
		i += end
		b.WriteString(angleToken(inner))
	}

	out := b.String()
	out = strings.Map(func(r rune) rune {
		switch r {
		case '*', '_', '~', '`':
			return -1
		}
		return r
	}, out)
	return strings.Join(strings.Fields(out), " ")
}

// angleToken renders one <...> token. Labeled tokens keep their label,
// mention sigils survive, bare URLs pass through.
func angleToken(inner string) string {
	head, label, labeled := strings.Cut(inner, "|")
	switch {
	case strings.HasPrefix(head, "@"):
		if labeled {
			return "@" + label
		}
		return head
	case strings.HasPrefix(head, "#"):
		if labeled {
			return "#" + label
		}
		return head
	case strings.HasPrefix(head, "!"):
		return "@" + strings.TrimPrefix(head, "!")
	default:
		if labeled {
			return label
		}
		return head
	}
}

// deriveTitle produces a deterministic thread title: the first sentence when
// it fits, otherwise a hard truncation with an ellipsis.
func deriveTitle(text string) string {
	s := stripMarkup(text)
	if s == "" {
		return ""
	}
	sentence := firstSentence(s)
	if len([]rune(sentence)) <= titleSentenceMax {
		return sentence
	}
	return truncateRunes(s, titleTruncateAt) + "..."
}

// derivePreview is the longer-form companion to deriveTitle.
func derivePreview(text string) string {
	s := stripMarkup(text)
	if len([]rune(s)) <= previewMax {
		return s
	}
	return truncateRunes(s, previewMax) + "..."
}

func firstSentence(s string) string {
	for i, r := range s {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		// Sentence boundary: terminal punctuation followed by space or end.
		if i+1 == len(s) || s[i+1] == ' ' {
			return strings.TrimSpace(s[:i+1])
		}
	}
	return s
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}
