// Package normalize extracts best-effort email fields from raw pasted or
// uploaded text. Extraction is total: when nothing matches, the optional
// fields stay empty and the content is returned unchanged.
package normalize

import (
	"regexp"
	"strings"
)

var (
	subjectRe    = regexp.MustCompile(`(?i)^(?:assunto|subject)\s*:\s*(.+)$`)
	emailRe      = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	salutationRe = regexp.MustCompile(`(?i)^(?:atenciosamente|cordialmente|abraços|abracos|att\.?|at\.te)[,.!]?\s*$`)
	// filters out phone numbers like "(11) 99999-9999" or "11 3456-7890"
	leadingDigitRe = regexp.MustCompile(`^\(?\d`)
)

// Normalized holds the fields extracted from raw email text
type Normalized struct {
	Subject     string
	SenderEmail string
	SenderName  string
	SenderRole  string
	Content     string
}

// Normalize extracts subject, sender email and signature name/role from
// raw text. Content always equals the input.
func Normalize(raw string) Normalized {
	n := Normalized{Content: raw}

	lines := nonEmptyLines(raw)

	for _, line := range lines {
		if m := subjectRe.FindStringSubmatch(line); m != nil {
			n.Subject = strings.TrimSpace(m[1])
			break
		}
	}

	n.SenderEmail = emailRe.FindString(raw)

	n.SenderName, n.SenderRole = extractSignature(lines)

	return n
}

// nonEmptyLines splits text into trimmed, non-empty lines
func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// extractSignature locates the closing salutation and reads the sender
// name from the first qualifying line after it; a qualifying line directly
// following the name is taken as the sender's role.
func extractSignature(lines []string) (name, role string) {
	salutationAt := -1
	for i, line := range lines {
		if salutationRe.MatchString(line) {
			salutationAt = i
			break
		}
	}
	if salutationAt < 0 {
		return "", ""
	}

	for i := salutationAt + 1; i < len(lines); i++ {
		if !signatureCandidate(lines[i]) {
			continue
		}
		name = lines[i]
		if i+1 < len(lines) && signatureCandidate(lines[i+1]) {
			role = lines[i+1]
		}
		return name, role
	}
	return "", ""
}

// signatureCandidate rejects addresses and phone numbers
func signatureCandidate(line string) bool {
	if line == "" || strings.Contains(line, "@") {
		return false
	}
	return !leadingDigitRe.MatchString(line)
}
