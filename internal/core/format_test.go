package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lakshaymaurya-felt/cleanml/internal/core"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{999, "999 B"},
		{1500, "1.5 kB"},
		{3 * 1000 * 1000, "3.0 MB"},
		{-1500, "-1.5 kB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, core.FormatSize(tt.in))
	}
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "1,234,567", core.FormatCount(1234567))
}

func TestPlatformString(t *testing.T) {
	assert.NotEmpty(t, core.PlatformString())
}
