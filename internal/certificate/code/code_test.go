package code

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRoundTrip(t *testing.T) {
	g := NewGenerator()
	for i := 0; i < 50; i++ {
		generated, err := g.Generate("form-1", "user-1")
		require.NoError(t, err)
		assert.True(t, IsValidFormat(generated), "generated code %q must satisfy the public format", generated)
		assert.True(t, strings.HasPrefix(generated, "UPE-CPA-"))
	}
}

func TestGenerateIsDeterministicUnderPinnedInputs(t *testing.T) {
	now := func() time.Time { return time.UnixMilli(1700000000000) }
	salt := bytes.NewReader(bytes.Repeat([]byte{0x42}, 12))

	g := NewGenerator(WithClock(now), WithRandom(salt))
	first, err := g.Generate("form-1", "user-1")
	require.NoError(t, err)
	second, err := g.Generate("form-1", "user-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerateTimeFragment(t *testing.T) {
	// 1700000000000 in base 36 is "lprihkg0" prefixed appropriately; the code
	// carries its first four characters uppercased.
	now := func() time.Time { return time.UnixMilli(1700000000000) }
	g := NewGenerator(WithClock(now))

	generated, err := g.Generate("form-1", "user-1")
	require.NoError(t, err)

	parts := strings.Split(generated, "-")
	require.Len(t, parts, 4)
	assert.Len(t, parts[3], 4)
}

func TestIsValidFormat(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{"UPE-CPA-1A2B3-2024", true},
		{"upe-cpa-abcde-2024", true}, // case-insensitive input
		{"UPE-CPA-1234-2024", false}, // 4-char first segment
		{"UPE-CPA-12345-202", false},
		{"UPE-CPA-12345-20244", false},
		{"UPE-CPB-12345-2024", false},
		{"UPE-CPA-1234!-2024", false},
		{"UPE-CPA-12345_2024", false},
		{"", false},
		{"UPE-CPA-12345-2024 extra", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, IsValidFormat(tt.code), "code %q", tt.code)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "UPE-CPA-ABCDE-2024", Normalize("  upe-cpa-abcde-2024 "))
}

func TestHashIsDeterministic(t *testing.T) {
	issuedAt := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	first := Hash("user-1", "form-1", "UPE-CPA-ABCDE-2024", issuedAt)
	second := Hash("user-1", "form-1", "UPE-CPA-ABCDE-2024", issuedAt)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestHashVariesPerField(t *testing.T) {
	issuedAt := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	base := Hash("user-1", "form-1", "UPE-CPA-ABCDE-2024", issuedAt)

	assert.NotEqual(t, base, Hash("user-2", "form-1", "UPE-CPA-ABCDE-2024", issuedAt))
	assert.NotEqual(t, base, Hash("user-1", "form-2", "UPE-CPA-ABCDE-2024", issuedAt))
	assert.NotEqual(t, base, Hash("user-1", "form-1", "UPE-CPA-ZZZZZ-2024", issuedAt))
	assert.NotEqual(t, base, Hash("user-1", "form-1", "UPE-CPA-ABCDE-2024", issuedAt.Add(time.Second)))
}

func TestHashNormalizesLocation(t *testing.T) {
	utc := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	recife := utc.In(time.FixedZone("BRT", -3*60*60))

	assert.Equal(t,
		Hash("user-1", "form-1", "UPE-CPA-ABCDE-2024", utc),
		Hash("user-1", "form-1", "UPE-CPA-ABCDE-2024", recife),
	)
}
