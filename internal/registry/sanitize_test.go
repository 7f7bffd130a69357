package registry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeQualifications(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "MBBS (Col)", "MBBS (Col)"},
		{"break tags become separators", "MBBS (Col)<br>MD (Col)", "MBBS (Col), MD (Col)"},
		{"adjacent tags collapse", "MBBS<br/><br/>MS", "MBBS, MS"},
		{"leading and trailing separators trimmed", "<p>MBBS</p>", "MBBS"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeQualifications(tt.in))
		})
	}
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Amal Kumara Silva", FullName("Amal Kumara", "Silva"))
	assert.Equal(t, "Silva", FullName("", "Silva"))
	assert.Equal(t, "Amal", FullName("Amal", ""))
}

func TestLooseStringAcceptsNumbers(t *testing.T) {
	var rows []record
	err := json.Unmarshal([]byte(`[{"reg_no":8457,"last_name":"Silva"},{"reg_no":" 28457 "}]`), &rows)
	assert.NoError(t, err)
	assert.Equal(t, looseString("8457"), rows[0].RegNo)
	assert.True(t, rows[1].matches("28457"))
}
