package numeric

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFloat(t *testing.T) {
	tests := []struct {
		name    string
		in      float64
		want    string
		wantErr bool
	}{
		{name: "plain", in: 0.5, want: "0.5"},
		{name: "negative", in: -12.25, want: "-12.25"},
		{name: "nan", in: math.NaN(), wantErr: true},
		{name: "positive infinity", in: math.Inf(1), wantErr: true},
		{name: "negative infinity", in: math.Inf(-1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromFloat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDecimal)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFromFloatPtr(t *testing.T) {
	got, err := FromFloatPtr(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	v := 2.5
	got, err = FromFloatPtr(&v)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(decimal.RequireFromString("2.5")))

	nan := math.NaN()
	_, err = FromFloatPtr(&nan)
	assert.ErrorIs(t, err, ErrInvalidDecimal)
}

func TestRoundIsBankers(t *testing.T) {
	assert.Equal(t, "2", Round(decimal.RequireFromString("2.5"), 0).String())
	assert.Equal(t, "4", Round(decimal.RequireFromString("3.5"), 0).String())
	assert.Equal(t, "0.1234", Round(decimal.RequireFromString("0.12345"), 4).String())
	assert.Equal(t, "0.1236", Round(decimal.RequireFromString("0.12355"), 4).String())
}

func TestQuo(t *testing.T) {
	assert.Equal(t, "10", Quo(decimal.NewFromInt(100), decimal.NewFromInt(10), 4).String())
	assert.Equal(t, "0.3333", Quo(decimal.NewFromInt(1), decimal.NewFromInt(3), 4).String())
	assert.True(t, Quo(decimal.NewFromInt(1), decimal.Zero, 4).IsZero())
}

func TestUnit(t *testing.T) {
	assert.Equal(t, "0.0001", Unit(4).String())
	assert.Equal(t, "1", Unit(0).String())
}

func TestToFloat(t *testing.T) {
	f, err := ToFloat(decimal.RequireFromString("1.25"))
	require.NoError(t, err)
	assert.Equal(t, 1.25, f)

	huge := decimal.New(1, 400)
	_, err = ToFloat(huge)
	assert.ErrorIs(t, err, ErrInvalidDecimal)
}
