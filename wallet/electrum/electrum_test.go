package electrum

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, err := New("electrum", "")
	require.Error(t, err)

	w, err := New("electrum", "/home/user/.electrum/wallets/default", WithTestnet(), WithPassword("hunter2"))
	require.NoError(t, err)
	require.True(t, w.testnet)
	require.Equal(t, "hunter2", w.password)
}

func TestExtractHex(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    string
		wantErr bool
	}{
		{
			name:    "plain hex string",
			payload: "0200000001ab",
			want:    "0200000001ab",
		},
		{
			name:    "hex field",
			payload: map[string]any{"hex": "deadbeef"},
			want:    "deadbeef",
		},
		{
			name:    "tx field",
			payload: map[string]any{"tx": "deadbeef"},
			want:    "deadbeef",
		},
		{
			name:    "unexpected payload",
			payload: map[string]any{"complete": true},
			wantErr: true,
		},
		{
			name:    "nil payload",
			payload: nil,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractHex(tt.payload, "payto")
			if tt.wantErr {
				require.Error(t, err)

				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseBalance(t *testing.T) {
	got, err := parseBalance("0.005")
	require.NoError(t, err)
	require.True(t, got.Equal(decimal.NewFromFloat(0.005)))

	got, err = parseBalance(float64(1))
	require.NoError(t, err)
	require.True(t, got.Equal(decimal.NewFromInt(1)))

	_, err = parseBalance(true)
	require.Error(t, err)
}
