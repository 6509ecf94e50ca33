package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storefront/internal/domain"
)

func TestParseIdentifierPhone(t *testing.T) {
	cases := map[string]string{
		"9876543210":      "+919876543210",
		"98765 43210":     "+919876543210",
		"(987) 654-3210":  "+919876543210",
		"919876543210":    "+919876543210",
		"+91 98765 43210": "+919876543210",
		"+1 555 123 4567": "+15551234567",
	}
	for raw, want := range cases {
		id, err := ParseIdentifier(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, domain.IdentifierPhone, id.Type, raw)
		assert.Equal(t, want, id.Normalized, raw)
	}
}

func TestParseIdentifierEmail(t *testing.T) {
	id, err := ParseIdentifier("  John@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, domain.IdentifierEmail, id.Type)
	assert.Equal(t, "john@example.com", id.Normalized)
}

func TestParseIdentifierRejects(t *testing.T) {
	for _, raw := range []string{"", "   ", "john", "john@", "a b@c.d", "12345", "abc123"} {
		_, err := ParseIdentifier(raw)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr, raw)
		assert.Equal(t, "identifier", verr.Field)
	}
}

func TestMask(t *testing.T) {
	phone, err := ParseIdentifier("9876543210")
	require.NoError(t, err)
	assert.Equal(t, "+91 98765 *****", Mask(phone))

	email, err := ParseIdentifier("john@example.com")
	require.NoError(t, err)
	assert.Equal(t, "jo***@example.com", Mask(email))

	short, err := ParseIdentifier("j@example.com")
	require.NoError(t, err)
	assert.Equal(t, "j***@example.com", Mask(short))
}
