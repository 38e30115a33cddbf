package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateCoins(t *testing.T) {
	tests := []struct {
		reports int64
		want    int64
	}{
		{0, 0},
		{1, 10},
		{5, 50},
		{6, 90},
		{15, 225},
		{16, 320},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CalculateCoins(tt.reports), "reports=%d", tt.reports)
	}
}
