package ledger

import (
	"fmt"
	"strconv"
	"strings"

	dErrors "capledger/pkg/domain-errors"
)

// Certificate numbers follow the durable format CERT-YYYY-NNNNNN: a 4-digit
// year and a 6-digit zero-padded sequence, strictly increasing within a year
// starting at 1. The format is a compatibility contract with previously
// issued certificates and must never change.
const certificatePrefix = "CERT"

// FormatCertificateNumber renders a certificate number for the given year and
// sequence.
func FormatCertificateNumber(year int, sequence int64) string {
	return fmt.Sprintf("%s-%04d-%06d", certificatePrefix, year, sequence)
}

// CertificateYearPrefix is the prefix shared by every certificate of a year,
// used by stores to scope the max-sequence scan.
func CertificateYearPrefix(year int) string {
	return fmt.Sprintf("%s-%04d-", certificatePrefix, year)
}

// ParseCertificateSequence extracts the numeric sequence from a certificate
// number. Comparison of sequences is numeric, not lexicographic: string
// ordering silently breaks once a year passes 999,999 issuances or the data
// contains non-zero-padded historical numbers.
func ParseCertificateSequence(certificateNumber string) (year int, sequence int64, err error) {
	parts := strings.Split(certificateNumber, "-")
	if len(parts) != 3 || parts[0] != certificatePrefix {
		return 0, 0, dErrors.Newf(dErrors.CodeInvalidInput, "malformed certificate number %q", certificateNumber)
	}
	year, err = strconv.Atoi(parts[1])
	if err != nil || year < 0 {
		return 0, 0, dErrors.Newf(dErrors.CodeInvalidInput, "malformed certificate year in %q", certificateNumber)
	}
	sequence, err = strconv.ParseInt(parts[2], 10, 64)
	if err != nil || sequence < 1 {
		return 0, 0, dErrors.Newf(dErrors.CodeInvalidInput, "malformed certificate sequence in %q", certificateNumber)
	}
	return year, sequence, nil
}
