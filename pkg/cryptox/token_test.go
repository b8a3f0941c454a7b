package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	for _, size := range []int{TokenSize128, TokenSize256, 24} {
		token, err := GenerateToken(size)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		again, err := GenerateToken(size)
		require.NoError(t, err)
		require.NotEqual(t, token, again)
	}

	for _, size := range []int{0, -1} {
		token, err := GenerateToken(size)
		require.Error(t, err)
		require.Empty(t, token)
	}
}

func TestGenerateNumericCode(t *testing.T) {
	t.Parallel()

	for range 200 {
		code, err := GenerateNumericCode(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, c := range code {
			require.True(t, c >= '0' && c <= '9', "non digit in %q", code)
		}
	}

	_, err := GenerateNumericCode(0)
	require.Error(t, err)
}

func TestGenerateHexCode(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for range 50 {
		code, err := GenerateHexCode(5)
		require.NoError(t, err)
		require.Regexp(t, "^[0-9a-f]{10}$", code)
		require.NotContains(t, seen, code)
		seen[code] = struct{}{}
	}
}

func TestFingerprintToken(t *testing.T) {
	t.Parallel()

	fp1a := FingerprintToken("test-token-1")
	fp1b := FingerprintToken("test-token-1")
	fp2 := FingerprintToken("test-token-2")

	require.Equal(t, fp1a, fp1b)
	require.NotEqual(t, fp1a, fp2)
	require.Len(t, fp1a, 43)
}

func TestEqualConstantTime(t *testing.T) {
	t.Parallel()

	require.True(t, EqualConstantTime("123456", "123456"))
	require.False(t, EqualConstantTime("123456", "123457"))
	require.False(t, EqualConstantTime("123456", "12345"))
}
