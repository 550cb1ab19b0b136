package recognition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPlate(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"ten characters", "MH19EQ0009", "MH 19 EQ 0009"},
		{"nine characters", "MH19E0009", "MH 19 E 0009"},
		{"eight characters", "MH19EQ09", "MH 19 EQ 09"},
		{"lowercase input", "mh19eq0009", "MH 19 EQ 0009"},
		{"noise stripped", "MH-19 EQ*0009", "MH 19 EQ 0009"},
		{"overlong truncated to ten", "MH19EQ0009XYZ", "MH 19 EQ 0009"},
		{"short returned as-is", "MH19EQ0", "MH19EQ0"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatPlate(tc.raw))
		})
	}
}
