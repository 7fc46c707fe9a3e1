package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "vouch/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// IDs must be valid, non-empty, non-nil UUIDs.
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseUserID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseUserID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseUserID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, UserID(validUUID), id)
	})

	t.Run("validator and verifier parsers share the invariant", func(t *testing.T) {
		_, err := ParseValidatorID(uuid.Nil.String())
		require.Error(t, err)
		_, err = ParseVerifierID("garbage")
		require.Error(t, err)
	})
}

// TestTypeDistinction verifies the compiler enforces type safety.
// If this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	userID := UserID(uuid.New())
	validatorID := ValidatorID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ UserID = validatorID   // compile error
	// var _ ValidatorID = userID   // compile error

	assert.NotEqual(t, uuid.UUID(userID), uuid.UUID(validatorID))
}

func TestParseMethodType(t *testing.T) {
	t.Run("accepts every member of the closed set", func(t *testing.T) {
		for _, m := range Methods() {
			parsed, err := ParseMethodType(m.String())
			require.NoError(t, err)
			assert.Equal(t, m, parsed)
		}
	})

	t.Run("rejects unknown methods", func(t *testing.T) {
		_, err := ParseMethodType("carrier_pigeon")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseMethodType("")
		require.Error(t, err)
	})
}
