package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddress(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"street with apartment", "123 Main Street, Apt. 4", "123 MAIN ST APT 4"},
		{"avenue", "456 Oak Avenue", "456 OAK AVE"},
		{"unit marker", "789 First Blvd #100", "789 FIRST BLVD UNIT 100"},
		{"boulevard", "1000 Sunset Boulevard", "1000 SUNSET BLVD"},
		{"drive lane road", "1 Elm Drive", "1 ELM DR"},
		{"court", "5 King Court", "5 KING CT"},
		{"circle", "9 Round Circle", "9 ROUND CIR"},
		{"suite", "77 Broad Street Suite 300", "77 BROAD ST STE 300"},
		{"whitespace runs collapsed", "  12   Pine    Road  ", "12 PINE RD"},
		{"already normalized", "123 MAIN ST APT 4", "123 MAIN ST APT 4"},
		{"substring replacement hits embedded matches", "10 Streeter Avenue", "10 STER AVE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Address(tt.input))
		})
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"formatted with country code", "+1 (555) 123-4567", "5551234567"},
		{"plain 10 digits", "5551234567", "5551234567"},
		{"dashed", "555-123-4567", "5551234567"},
		{"too short is absent", "12345", ""},
		{"11 digits not starting with 1", "25551234567", ""},
		{"12 digits is absent", "125551234567", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Phone(tt.input))
		})
	}
}

func TestEmail(t *testing.T) {
	assert.Equal(t, "john@email.com", Email(" John@Email.COM "))
	assert.Equal(t, "", Email(""))
}

func TestState(t *testing.T) {
	assert.Equal(t, "CA", State("ca"))
	assert.Equal(t, "CA", State(" Ca "))
}

func TestZip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"zip plus four", "90210-1234", "90210"},
		{"plain", "90210", "90210"},
		{"short kept as-is", "902", "902"},
		{"letters stripped", "9a0b2c1d0", "90210"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Zip(tt.input))
		})
	}
}

// Normalization must be idempotent: running a value through twice yields
// the same result as once.
func TestIdempotency(t *testing.T) {
	addresses := []string{"123 Main Street, Apt. 4", "789 First Blvd #100", "  12   Pine    Road  "}
	for _, a := range addresses {
		once := Address(a)
		assert.Equal(t, once, Address(once), "address %q", a)
	}

	phones := []string{"+1 (555) 123-4567", "5551234567", "12345"}
	for _, p := range phones {
		once := Phone(p)
		assert.Equal(t, once, Phone(once), "phone %q", p)
	}

	assert.Equal(t, Email(Email(" John@Email.COM ")), Email(" John@Email.COM "))
	assert.Equal(t, State(State(" ca ")), State(" ca "))
	assert.Equal(t, Zip(Zip("90210-1234")), Zip("90210-1234"))
}
