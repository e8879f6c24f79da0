package chat

import (
	"fmt"
	"sort"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"

	"stream-chat-service/internal/models"
)

// flagSeverity ranks flags when a message matches terms of several kinds.
var flagSeverity = map[string]int{
	models.FlagHate:   5,
	models.FlagSexual: 4,
	models.FlagToxic:  3,
	models.FlagSpam:   2,
	models.FlagOther:  1,
}

// Classifier tags messages with a moderation flag using an Aho-Corasick
// automaton built over configured term lists. The tag is advisory: it is
// stored with the message and never blocks delivery.
type Classifier struct {
	matcher *goahocorasick.Machine
	flags   map[string]string
}

// NewClassifier builds a classifier from flag -> terms. It returns nil when
// no terms are configured; a nil classifier tags nothing.
func NewClassifier(terms map[string][]string) (*Classifier, error) {
	flags := map[string]string{}
	for flag, words := range terms {
		if _, ok := flagSeverity[flag]; !ok {
			return nil, fmt.Errorf("unknown moderation flag %q", flag)
		}
		for _, word := range words {
			key := string(normalize([]rune(word)))
			if key == "" {
				continue
			}
			if current, ok := flags[key]; ok && flagSeverity[current] >= flagSeverity[flag] {
				continue
			}
			flags[key] = flag
		}
	}
	if len(flags) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(flags))
	for key := range flags {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	patterns := make([][]rune, len(keys))
	for i, key := range keys {
		patterns[i] = []rune(key)
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, fmt.Errorf("build moderation automaton: %w", err)
	}
	return &Classifier{matcher: m, flags: flags}, nil
}

// Classify returns the most severe flag matched by text, or "".
func (c *Classifier) Classify(text string) string {
	if c == nil {
		return ""
	}
	content := normalize([]rune(text))
	if len(content) == 0 {
		return ""
	}

	best := ""
	for _, term := range c.matcher.MultiPatternSearch(content, false) {
		flag := c.flags[string(term.Word)]
		if flagSeverity[flag] > flagSeverity[best] {
			best = flag
		}
	}
	return best
}

// normalize lowercases, maps common leet substitutions back to letters and
// drops punctuation so "F.R.E.E m0ney" matches "free money".
func normalize(input []rune) []rune {
	out := make([]rune, 0, len(input))
	lastSpace := true
	for _, r := range input {
		r = unicode.ToLower(simplifyRune(r))
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				out = append(out, ' ')
			}
			lastSpace = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
		default:
			out = append(out, r)
			lastSpace = false
		}
	}
	if len(out) > 0 && out[len(out)-1] == ' ' {
		out = out[:len(out)-1]
	}
	return out
}

func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}
