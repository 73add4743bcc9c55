package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCertificateNumber(t *testing.T) {
	assert.Equal(t, "CERT-2024-000001", FormatCertificateNumber(2024, 1))
	assert.Equal(t, "CERT-2024-000042", FormatCertificateNumber(2024, 42))
	assert.Equal(t, "CERT-2025-999999", FormatCertificateNumber(2025, 999999))
	// Past a million the sequence widens instead of wrapping.
	assert.Equal(t, "CERT-2025-1000000", FormatCertificateNumber(2025, 1000000))
}

func TestCertificateYearPrefix(t *testing.T) {
	assert.Equal(t, "CERT-2024-", CertificateYearPrefix(2024))
}

func TestParseCertificateSequence(t *testing.T) {
	year, seq, err := ParseCertificateSequence("CERT-2024-000123")
	require.NoError(t, err)
	assert.Equal(t, 2024, year)
	assert.Equal(t, int64(123), seq)

	// Sequences past the padding width still parse numerically.
	year, seq, err = ParseCertificateSequence("CERT-2025-1000001")
	require.NoError(t, err)
	assert.Equal(t, 2025, year)
	assert.Equal(t, int64(1000001), seq)

	for _, malformed := range []string{
		"",
		"CERT-2024",
		"CERT-2024-",
		"CERT-2024-abc",
		"CERT-2024-000000",
		"SHARE-2024-000001",
		"CERT-20x4-000001",
	} {
		_, _, err := ParseCertificateSequence(malformed)
		assert.Error(t, err, "expected %q to be rejected", malformed)
	}
}

// Numeric comparison must win over string comparison once values cross a
// padding boundary: "999999" > "1000000" lexicographically but not numerically.
func TestSequenceComparisonIsNumeric(t *testing.T) {
	_, small, err := ParseCertificateSequence("CERT-2025-999999")
	require.NoError(t, err)
	_, large, err := ParseCertificateSequence("CERT-2025-1000000")
	require.NoError(t, err)

	assert.Greater(t, large, small)
	assert.True(t, "CERT-2025-999999" > "CERT-2025-1000000", "string ordering disagrees, which is the point")
}
