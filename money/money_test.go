package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		value   decimal.Decimal
		want    string
		wantErr bool
	}{
		{
			name:  "New - Pass",
			value: decimal.NewFromFloat(1.5),
			want:  "1.5",
		},
		{
			name:    "New - Fail Zero Amount",
			value:   decimal.Zero,
			wantErr: true,
		},
		{
			name:    "New - Fail Negative Amount",
			value:   decimal.NewFromInt(-1),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)

				return
			}
			if !tt.wantErr && got.String() != tt.want {
				t.Errorf("New() = %v, want %v", got, tt.want)
			}
		})
	}
}
