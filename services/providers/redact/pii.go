// Package redact removes personal data and credentials from text before it
// leaves the process for a remote summarization provider.
package redact

import (
	"regexp"
	"sort"
	"strings"
)

// PIIType represents different types of PII that can be detected
type PIIType string

const (
	PIITypeEmail      PIIType = "email"
	PIITypePhone      PIIType = "phone"
	PIITypeSSN        PIIType = "ssn"
	PIITypeCreditCard PIIType = "credit_card"
	PIITypeIPAddress  PIIType = "ip_address"
	PIITypeSecret     PIIType = "secret"
)

// Detection is one PII match, Start and End are byte offsets into the text
type Detection struct {
	Type  PIIType
	Value string
	Start int
	End   int
}

type detector struct {
	piiType PIIType
	pattern *regexp.Regexp
	valid   func(string) bool
}

// Order matters: earlier detectors win when matches overlap at the same offset
var detectors = []detector{
	{PIITypeSecret, regexp.MustCompile(`-----BEGIN\s+(?:RSA\s+|EC\s+|DSA\s+|OPENSSH\s+)?PRIVATE\s+KEY-----`), nil},
	{PIITypeSecret, regexp.MustCompile(`(?i)\b(?:postgres|postgresql|mysql|mongodb|redis)://[^\s'"]+:[^\s'"]+@[^\s'"]+`), nil},
	{PIITypeSecret, regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`), nil},
	{PIITypeSecret, regexp.MustCompile(`\bAIza[0-9A-Za-z\-_]{35}\b`), nil},
	{PIITypeSecret, regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`), nil},
	{PIITypeSecret, regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9\-]{10,}\b`), nil},
	{PIITypeSecret, regexp.MustCompile(`\b[sr]k_(?:live|test)_[0-9a-zA-Z]{24,}\b`), nil},
	{PIITypeSecret, regexp.MustCompile(`\bsk-(?:ant-)?[A-Za-z0-9_\-]{32,}\b`), nil},
	{PIITypeSecret, regexp.MustCompile(`\beyJ[A-Za-z0-9_\-]+\.eyJ[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+\b`), nil},
	{PIITypeSecret, regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9_\-\.]{20,}`), nil},
	{PIITypeEmail, regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`), nil},
	{PIITypeCreditCard, regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`), luhnCheck},
	{PIITypeSSN, regexp.MustCompile(`\b[0-9]{3}-[0-9]{2}-[0-9]{4}\b`), nil},
	{PIITypeSSN, regexp.MustCompile(`\b[0-9]{9}\b`), looksLikeSSN},
	{PIITypeIPAddress, regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`), nil},
	{PIITypeIPAddress, regexp.MustCompile(`\b(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}\b`), nil},
	{PIITypePhone, regexp.MustCompile(`(?:\+?1[-. ]?)?\(?\b[0-9]{3}\)?[-. ]?[0-9]{3}[-. ][0-9]{4}\b`), nil},
}

// Detect returns the non-overlapping PII matches in text ordered by position
func Detect(text string) []Detection {
	var found []Detection
	for _, d := range detectors {
		for _, m := range d.pattern.FindAllStringIndex(text, -1) {
			value := text[m[0]:m[1]]
			if d.valid != nil && !d.valid(value) {
				continue
			}
			found = append(found, Detection{Type: d.piiType, Value: value, Start: m[0], End: m[1]})
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Start != found[j].Start {
			return found[i].Start < found[j].Start
		}
		return found[i].End > found[j].End
	})

	// keep the first (longest) match of every overlapping run
	out := found[:0]
	end := -1
	for _, d := range found {
		if d.Start < end {
			continue
		}
		out = append(out, d)
		end = d.End
	}
	return out
}

// ContainsPII reports whether text has at least one PII match
func ContainsPII(text string) bool {
	return len(Detect(text)) > 0
}

// Redact replaces every PII match with a typed placeholder and returns the
// redacted text together with the detections
func Redact(text string) (string, []Detection) {
	detections := Detect(text)
	if len(detections) == 0 {
		return text, nil
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, d := range detections {
		b.WriteString(text[last:d.Start])
		b.WriteString(placeholder(d.Type))
		last = d.End
	}
	b.WriteString(text[last:])
	return b.String(), detections
}

func placeholder(t PIIType) string {
	switch t {
	case PIITypeEmail:
		return "[EMAIL_REDACTED]"
	case PIITypePhone:
		return "[PHONE_REDACTED]"
	case PIITypeSSN:
		return "[SSN_REDACTED]"
	case PIITypeCreditCard:
		return "[CC_REDACTED]"
	case PIITypeIPAddress:
		return "[IP_REDACTED]"
	case PIITypeSecret:
		return "[SECRET_REDACTED]"
	default:
		return "[REDACTED]"
	}
}

// looksLikeSSN rejects 9-digit numbers that cannot be issued SSNs
func looksLikeSSN(s string) bool {
	if len(s) != 9 {
		return false
	}
	if s[:3] == "000" || s[3:5] == "00" || s[5:] == "0000" {
		return false
	}
	return !strings.HasPrefix(s, "666") && !strings.HasPrefix(s, "9")
}

// luhnCheck validates a card number, ignoring spaces and dashes
func luhnCheck(cardNumber string) bool {
	cardNumber = strings.NewReplacer(" ", "", "-", "").Replace(cardNumber)
	if len(cardNumber) < 13 || len(cardNumber) > 19 {
		return false
	}

	sum := 0
	second := false
	for i := len(cardNumber) - 1; i >= 0; i-- {
		digit := int(cardNumber[i] - '0')
		if second {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		second = !second
	}
	return sum%10 == 0
}
