package sanitizer

import (
	"strings"
	"unicode"
)

// Strategy normalizes a single value.
type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// NormalizeMultiline trims every line and collapses runs of blank lines to one.
func NormalizeMultiline(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")

	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = TrimAndNormalize(line)
		if line == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

func NormalizeTitle(title string) string {
	return TrimAndNormalize(title)
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

// NormalizeKey lowercases and trims identifiers such as roles and types.
func NormalizeKey(key string) string {
	return Pipeline{TrimAndNormalize, strings.ToLower}.Apply(key)
}
