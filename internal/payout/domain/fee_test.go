package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentFee(t *testing.T) {
	tests := []struct {
		name  string
		fee   PercentFee
		gross int64
		want  int64
	}{
		{"percentage above floor", PercentFee{Bps: 100, Min: 2500}, 1000000, 10000},
		{"floor wins on small gross", PercentFee{Bps: 100, Min: 2500}, 100000, 2500},
		{"flat fee only", PercentFee{Bps: 0, Min: 2500}, 60000, 2500},
		{"truncates toward zero", PercentFee{Bps: 25, Min: 0}, 99999, 249},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fee.PayoutFee(tt.gross))
		})
	}
}
