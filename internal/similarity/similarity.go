// Package similarity provides the identity-matching primitives used by the
// multi-account engine: edit-distance string similarity, Philippine phone
// normalization, domain-gated email comparison and structured address
// comparison. All functions are pure and symmetric in their arguments.
package similarity

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Levenshtein returns the edit distance between two strings.
func Levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// Ratio returns a similarity in [0,1] based on the Levenshtein distance
// relative to the longer string. Two empty strings are not comparable and
// yield zero.
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 0
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	dist := Levenshtein(a, b)
	return 1 - float64(dist)/float64(longest)
}

// NameSimilarity compares two personal names case-insensitively after
// trimming surrounding whitespace. Returns a value in [0,1].
func NameSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	return Ratio(a, b)
}

// NormalizePhone canonicalizes a Philippine phone number to E.164 form
// (+639XXXXXXXXX). Numbers that cannot be parsed fall back to a digit-level
// normalization so that local "09..." and international "+639..." spellings
// of the same subscriber still compare equal.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if num, err := phonenumbers.Parse(raw, "PH"); err == nil && phonenumbers.IsValidNumber(num) {
		return phonenumbers.Format(num, phonenumbers.E164)
	}

	// Fallback: strip everything but digits and re-apply the +63 country code.
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	switch {
	case strings.HasPrefix(d, "63"):
		return "+" + d
	case strings.HasPrefix(d, "0"):
		return "+63" + d[1:]
	case d == "":
		return ""
	default:
		return "+63" + d
	}
}

// PhonesMatch reports whether two phone numbers normalize to the same
// canonical value. Empty numbers never match.
func PhonesMatch(a, b string) bool {
	na := NormalizePhone(a)
	nb := NormalizePhone(b)
	return na != "" && na == nb
}

// EmailSimilarity compares two email addresses. Different domains are an
// immediate zero; same-domain addresses are scored by the edit-distance
// similarity of their local parts. Returns a value in [0,1].
func EmailSimilarity(a, b string) float64 {
	localA, domainA, okA := splitEmail(a)
	localB, domainB, okB := splitEmail(b)
	if !okA || !okB {
		return 0
	}
	if domainA != domainB {
		return 0
	}
	if localA == localB {
		return 1
	}
	return Ratio(localA, localB)
}

// Address holds the comparable parts of a Philippine address.
type Address struct {
	Street   string `json:"street"`
	Barangay string `json:"barangay"`
	City     string `json:"city"`
}

// IsZero reports whether no address fields are populated.
func (a Address) IsZero() bool {
	return a.Street == "" && a.Barangay == "" && a.City == ""
}

// AddressSimilarity compares two structured addresses field by field:
// street fuzzily, barangay and city by exact case-insensitive match.
// The result in [0,1] is averaged over fields present on both sides.
func AddressSimilarity(a, b Address) float64 {
	var total float64
	var fields int

	if a.Street != "" && b.Street != "" {
		total += Ratio(strings.ToLower(a.Street), strings.ToLower(b.Street))
		fields++
	}
	if a.Barangay != "" && b.Barangay != "" {
		if strings.EqualFold(strings.TrimSpace(a.Barangay), strings.TrimSpace(b.Barangay)) {
			total += 1
		}
		fields++
	}
	if a.City != "" && b.City != "" {
		if strings.EqualFold(strings.TrimSpace(a.City), strings.TrimSpace(b.City)) {
			total += 1
		}
		fields++
	}

	if fields == 0 {
		return 0
	}
	return total / float64(fields)
}

// LastName extracts the last whitespace-separated token of a full name,
// lowercased. Used by the familial-name heuristic.
func LastName(fullName string) string {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(fullName)))
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

func splitEmail(email string) (local, domain string, ok bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", "", false
	}
	return email[:at], email[at+1:], true
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
