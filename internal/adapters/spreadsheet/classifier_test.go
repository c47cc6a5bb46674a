package spreadsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameClassifier_IsDailySchedule(t *testing.T) {
	c := NewNameClassifier()

	tests := []struct {
		name     string
		fileName string
		want     bool
	}{
		{"month-day", "ocs_0501.xlsx", true},
		{"short year", "OCS 240501.xlsx", true},
		{"full date", "/tmp/uploads/ocs-20240501.xlsx", true},
		{"date range", "ocs_0501-0507.xlsx", false},
		{"weekly keyword", "주간 ocs_0501.xlsx", false},
		{"weekly english", "OCS_Weekly_0501.xlsx", false},
		{"no date", "ocs.xlsx", false},
		{"invalid date digits", "ocs_1399.xlsx", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsDailySchedule(tt.fileName))
		})
	}
}

func TestNameClassifier_IsEncrypted(t *testing.T) {
	c := NewNameClassifier()

	assert.True(t, c.IsEncrypted([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0x00}))
	assert.False(t, c.IsEncrypted([]byte("PK\x03\x04rest-of-zip")))
	assert.False(t, c.IsEncrypted(nil))
}
