// Package textnorm cleans raw OCR output line by line before pattern
// extraction. Cleaning is lossy on purpose: anything that cannot be part
// of a place name or a coordinate is stripped.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	allowedChars  = regexp.MustCompile(`[^A-Za-z0-9,.\- ]+`)
	multiSpace    = regexp.MustCompile(`\s+`)
	standaloneNum = regexp.MustCompile(`^\d+$`)
	trailingPunct = regexp.MustCompile(`[,.\-]+$`)
)

// Normalize cleans one OCR output line: Unicode NFC, charset strip,
// whitespace collapse, removal of standalone numeric tokens, trailing
// punctuation trim, then the misread correction tables. Tokens of length
// one are discarded except hemisphere markers (N, S, E, W), which carry
// coordinate signs. Commas separating tokens survive because downstream
// segmentation keys on them. Returns "" when nothing useful survives;
// callers drop lines shorter than two characters.
func Normalize(line string) string {
	s := norm.NFC.String(line)
	s = allowedChars.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	tokens := strings.Fields(s)
	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		comma := strings.HasSuffix(tok, ",")
		tok = trimTokenPunct(tok)
		if len(tok) <= 1 && !hemisphereMark(tok) {
			continue
		}
		if standaloneNum.MatchString(tok) {
			continue
		}
		fixed := correctToken(tok)
		if comma {
			fixed += ","
		}
		kept = append(kept, fixed)
	}

	out := strings.Join(kept, " ")
	out = trailingPunct.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// hemisphereMark reports whether a single-letter token is one of the
// compass letters that suffix a coordinate value.
func hemisphereMark(tok string) bool {
	switch strings.ToUpper(tok) {
	case "N", "S", "E", "W":
		return true
	}
	return false
}

// trimTokenPunct trims trailing commas, periods and hyphens from a token
// while leaving embedded ones (decimal points, hyphenated names) alone.
func trimTokenPunct(tok string) string {
	return strings.TrimRight(tok, ",.-")
}

// correctToken applies the whole-word fixes and, for tokens that are
// otherwise alphabetic, the digit/letter confusion repairs.
func correctToken(tok string) string {
	if fix, ok := wordFixes[strings.ToLower(tok)]; ok {
		return fix
	}

	if !mostlyLetters(tok) {
		return tok
	}
	repaired := strings.Map(func(r rune) rune {
		if rep, ok := digitRepairs[r]; ok {
			return rep
		}
		return r
	}, tok)
	if fix, ok := wordFixes[strings.ToLower(repaired)]; ok {
		return fix
	}
	return repaired
}

// mostlyLetters reports whether a token is alphabetic apart from the
// occasional confused digit, meaning digit repair is safe to apply.
func mostlyLetters(tok string) bool {
	letters, digits := 0, 0
	for _, r := range tok {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			if _, ok := digitRepairs[r]; !ok {
				return false
			}
			digits++
		}
	}
	return letters > 0 && letters > digits
}
