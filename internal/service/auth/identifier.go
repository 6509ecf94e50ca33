package auth

import (
	"regexp"
	"strings"

	"storefront/internal/domain"
)

const defaultCountryCode = "91"

var (
	phonePattern      = regexp.MustCompile(`^[+]?[0-9\s\-()]+$`)
	emailPattern      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	normalizedPhone   = regexp.MustCompile(`^\+[0-9]{11,13}$`)
	phoneSeparators   = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "\t", "")
	errBadIdentifier  = domain.NewValidationError("identifier", "Please enter a valid phone number or email")
	errBadPhoneNumber = domain.NewValidationError("identifier", "Please enter a valid phone number")
)

// Identifier is a validated login identifier.
type Identifier struct {
	Raw        string
	Type       domain.IdentifierType
	Normalized string
}

// ParseIdentifier validates raw as a phone number or an email address.
// Phone numbers are normalized to +<country code><10 digits>; bare 10 digit
// numbers get country code 91.
func ParseIdentifier(raw string) (Identifier, error) {
	trimmed := strings.TrimSpace(raw)
	switch {
	case trimmed == "":
		return Identifier{}, errBadIdentifier
	case phonePattern.MatchString(trimmed):
		n := NormalizePhone(trimmed)
		if !normalizedPhone.MatchString(n) {
			return Identifier{}, errBadPhoneNumber
		}
		return Identifier{Raw: raw, Type: domain.IdentifierPhone, Normalized: n}, nil
	case emailPattern.MatchString(trimmed):
		return Identifier{Raw: raw, Type: domain.IdentifierEmail, Normalized: strings.ToLower(trimmed)}, nil
	default:
		return Identifier{}, errBadIdentifier
	}
}

// NormalizePhone strips separators and adds the default country code.
func NormalizePhone(phone string) string {
	cleaned := phoneSeparators.Replace(strings.TrimSpace(phone))
	switch {
	case strings.HasPrefix(cleaned, "+"):
		return cleaned
	case strings.HasPrefix(cleaned, defaultCountryCode) && len(cleaned) == 12:
		return "+" + cleaned
	case len(cleaned) == 10:
		return "+" + defaultCountryCode + cleaned
	default:
		return "+" + cleaned
	}
}

// Mask hides most of an identifier for display: phones keep the country code
// and the first five national digits, emails keep two characters and the domain.
func Mask(id Identifier) string {
	if id.Type == domain.IdentifierPhone {
		n := id.Normalized
		if !normalizedPhone.MatchString(n) {
			return n
		}
		national := n[len(n)-10:]
		cc := n[:len(n)-10]
		return cc + " " + national[:5] + " *****"
	}
	at := strings.LastIndex(id.Normalized, "@")
	if at < 0 {
		return id.Normalized
	}
	local := id.Normalized[:at]
	if len(local) > 2 {
		local = local[:2]
	}
	return local + "***" + id.Normalized[at:]
}
