package edgar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripAccession(t *testing.T) {
	assert.Equal(t, "000123456725000123", StripAccession("0001234567-25-000123"))
	assert.Equal(t, "000123456725000123", StripAccession("000123456725000123"))
	assert.Equal(t, "", StripAccession("no digits"))
}

func TestDashAccession(t *testing.T) {
	assert.Equal(t, "0001234567-25-000123", DashAccession("000123456725000123"))
	assert.Equal(t, "0001234567-25-000123", DashAccession("0001234567-25-000123"))
}

func TestDashAccession_Idempotent(t *testing.T) {
	for _, in := range []string{
		"000123456725000123",
		"0001234567-25-000123",
		"9999999999-01-777777",
	} {
		once := DashAccession(in)
		assert.Equal(t, once, DashAccession(once), "canonicalizing a canonical form must be a no-op: %s", in)
	}
}

func TestDashAccession_ShortInputUnchanged(t *testing.T) {
	// Fewer than 18 digits: no separators inserted.
	assert.Equal(t, "12345", DashAccession("12345"))
	assert.Equal(t, "12345678901234567", DashAccession("1-2345678901234567"))
}

func TestNormalizeDate(t *testing.T) {
	assert.Equal(t, "2026-08-14", NormalizeDate("20260814"))
	assert.Equal(t, "2026-08-14", NormalizeDate("2026-08-14"))
	assert.Equal(t, "2026-08-14", NormalizeDate("  2026-08-14 "))
	assert.Equal(t, "bogus", NormalizeDate("bogus"))
}
