package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agegate/internal/verification/models"
)

func TestIssueAndParse(t *testing.T) {
	issuer := NewIssuer("test-signing-key")
	now := time.Now()

	signed, err := issuer.Issue("00112233445566778899aabbccddeeff", now)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	id, err := issuer.Parse(signed, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "00112233445566778899aabbccddeeff", id)
}

func TestParseExpired(t *testing.T) {
	issuer := NewIssuer("test-signing-key")
	now := time.Now()

	signed, err := issuer.Issue("00112233445566778899aabbccddeeff", now)
	require.NoError(t, err)

	// Token expiry tracks the record TTL.
	_, err = issuer.Parse(signed, now.Add(models.RecordTTL+time.Minute))
	assert.Error(t, err)
}

func TestParseWrongKey(t *testing.T) {
	signed, err := NewIssuer("key-one").Issue("00112233445566778899aabbccddeeff", time.Now())
	require.NoError(t, err)

	_, err = NewIssuer("key-two").Parse(signed, time.Now())
	assert.Error(t, err)
}

func TestParseGarbage(t *testing.T) {
	issuer := NewIssuer("test-signing-key")

	for _, input := range []string{"", "not-a-token", "a.b.c"} {
		_, err := issuer.Parse(input, time.Now())
		assert.Error(t, err, "input %q should not parse", input)
	}
}
