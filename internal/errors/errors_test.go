package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelsMatchByType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"empty input", EmptyInputError("median"), ErrEmptyInput},
		{"invalid coordinate", InvalidCoordinateErrorf("latitude %f out of range", 91.0), ErrInvalidCoordinate},
		{"membership integrity", MembershipIntegrityErrorf("3 + 4 != 8"), ErrMembershipIntegrity},
		{"division by zero", DivisionByZeroError("milestones"), ErrDivisionByZero},
		{"did not converge", DidNotConvergeErrorf("vincenty"), ErrDidNotConverge},
		{"validation", ValidationError("too few members"), ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, Is(tt.err, tt.sentinel))
			assert.False(t, Is(tt.err, ErrDidNotConverge) && tt.sentinel != ErrDidNotConverge)
		})
	}
}

func TestForCommunityKeepsChain(t *testing.T) {
	t.Parallel()

	err := ForCommunity(DivisionByZeroError("lifetime"), "octo/hello")
	require.Error(t, err)

	assert.True(t, Is(err, ErrDivisionByZero))
	assert.Contains(t, err.Error(), "community octo/hello")
	assert.Equal(t, ErrorTypeDivisionByZero, GetType(err))

	var e *Error
	require.True(t, As(err, &e))
	assert.Equal(t, "octo/hello", e.Context["community"])
}

func TestForCommunityPlainError(t *testing.T) {
	t.Parallel()

	base := fmt.Errorf("boom")
	err := ForCommunity(base, "a/b")
	assert.True(t, Is(err, base))
	assert.Equal(t, ErrorTypeInternal, GetType(err))
	assert.Nil(t, ForCommunity(nil, "a/b"))
}

func TestSeverityHelpers(t *testing.T) {
	t.Parallel()

	assert.True(t, IsFatal(ConfigError("missing token")))
	assert.False(t, IsFatal(EmptyInputError("x")))
	assert.False(t, IsFatal(nil))
	assert.Equal(t, SeverityLow, GetSeverity(nil))
	assert.Equal(t, SeverityMedium, GetSeverity(fmt.Errorf("plain")))
	assert.Equal(t, SeverityHigh, GetSeverity(ValidationError("bad")))
}

func TestDetailedString(t *testing.T) {
	t.Parallel()

	err := ExternalError(fmt.Errorf("503"), "geocoder unavailable").WithContext("address", "Berlin")
	out := err.DetailedString()

	assert.Contains(t, out, "[MEDIUM] [EXTERNAL] geocoder unavailable")
	assert.Contains(t, out, "Caused by: 503")
	assert.Contains(t, out, "address: Berlin")
}
