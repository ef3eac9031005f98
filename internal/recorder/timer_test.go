package recorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00"},
		{9, "00:09"},
		{59, "00:59"},
		{60, "01:00"},
		{65, "01:05"},
		{3599, "59:59"},
		{3600, "60:00"},
		{6000, "100:00"},
		{-3, "00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatElapsed(tt.seconds))
		})
	}
}

func TestSessionTimer(t *testing.T) {
	var timer SessionTimer
	for i := 0; i < 3; i++ {
		timer.Advance()
	}
	assert.Equal(t, 3, timer.Seconds())

	timer.Reset()
	assert.Equal(t, 0, timer.Seconds())
}
