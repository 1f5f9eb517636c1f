package population

import (
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/tokensim/internal/models"
	"github.com/songzhibin97/tokensim/internal/utils/numeric"
)

func sum(users []models.User) decimal.Decimal {
	total := decimal.Zero
	for _, u := range users {
		total = total.Add(u.Balance)
	}
	return total
}

func TestGenerate_SupplyConservation(t *testing.T) {
	tests := []struct {
		name      string
		users     uint64
		supply    int64
		precision int32
	}{
		{name: "small population", users: 10, supply: 1_000, precision: 4},
		{name: "default run", users: 100, supply: 1_000_000, precision: 4},
		{name: "coarse precision", users: 37, supply: 12_345, precision: 1},
		{name: "whole tokens", users: 7, supply: 100, precision: 0},
		{name: "single user", users: 1, supply: 1_000, precision: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewPCG(1, 2))
			supply := decimal.NewFromInt(tt.supply)

			users := Generate(rng, tt.users, supply, decimal.NewFromInt(1), tt.precision)
			require.Len(t, users, int(tt.users))

			tolerance := numeric.Unit(tt.precision).Mul(decimal.NewFromUint64(tt.users))
			diff := sum(users).Sub(supply).Abs()
			assert.True(t, diff.LessThanOrEqual(tolerance), "diff %s exceeds %s", diff, tolerance)

			for _, u := range users {
				assert.False(t, u.Balance.IsNegative())
				assert.LessOrEqual(t, -u.Balance.Exponent(), tt.precision)
			}
		})
	}
}

func TestGenerate_LowPriceLeftoverIsRedistributed(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	supply := decimal.NewFromInt(1_000_000)

	users := Generate(rng, 50, supply, decimal.RequireFromString("0.01"), 4)
	require.Len(t, users, 50)

	diff := sum(users).Sub(supply).Abs()
	assert.True(t, diff.LessThan(numeric.Unit(4)), "diff %s", diff)
}

func TestGenerate_Deterministic(t *testing.T) {
	supply := decimal.NewFromInt(10_000)
	a := Generate(rand.New(rand.NewPCG(7, 7)), 20, supply, decimal.NewFromInt(1), 4)
	b := Generate(rand.New(rand.NewPCG(7, 7)), 20, supply, decimal.NewFromInt(1), 4)

	require.Len(t, b, len(a))
	for i := range a {
		assert.True(t, a[i].Balance.Equal(b[i].Balance))
	}
}

func TestGenerate_Empty(t *testing.T) {
	users := Generate(rand.New(rand.NewPCG(1, 1)), 0, decimal.NewFromInt(100), decimal.NewFromInt(1), 4)
	assert.Empty(t, users)
}

func TestGenerate_ZeroSupply(t *testing.T) {
	users := Generate(rand.New(rand.NewPCG(1, 1)), 5, decimal.Zero, decimal.NewFromInt(1), 4)
	require.Len(t, users, 5)
	for _, u := range users {
		assert.True(t, u.Balance.IsZero())
	}
}

func TestDistributeLeftover(t *testing.T) {
	users := []models.User{
		{Balance: decimal.NewFromInt(1)},
		{Balance: decimal.NewFromInt(1)},
		{Balance: decimal.NewFromInt(1)},
	}

	distributeLeftover(users, decimal.RequireFromString("3.05"), 2)

	assert.Equal(t, "1.02", users[0].Balance.String())
	assert.Equal(t, "1.02", users[1].Balance.String())
	assert.Equal(t, "1.01", users[2].Balance.String())
	assert.Equal(t, "3.05", sum(users).String())
}
