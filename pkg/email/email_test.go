package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "jane@example.com", Normalize("  Jane@Example.COM "))
	assert.Equal(t, "", Normalize("   "))
}

func TestDeriveNameFromEmail(t *testing.T) {
	cases := map[string]string{
		"jane.doe@example.com":  "Jane Doe",
		"admin@example.com":     "Admin",
		"j_k-l+tag@example.com": "J K L Tag",
		"@example.com":          "Admin",
	}
	for address, want := range cases {
		assert.Equal(t, want, DeriveNameFromEmail(address), address)
	}
}
