package trading

import (
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/tokensim/internal/models"
	"github.com/songzhibin97/tokensim/internal/utils/numeric"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func testUsers(balances ...int64) []models.User {
	users := make([]models.User, len(balances))
	for i, b := range balances {
		users[i] = models.NewUser(decimal.NewFromInt(b))
	}
	return users
}

func totalBalance(users []models.User) decimal.Decimal {
	total := decimal.Zero
	for _, u := range users {
		total = total.Add(u.Balance)
	}
	return total
}

func TestBasicSimulator_ProcessInterval(t *testing.T) {
	tests := []struct {
		name   string
		params Params
	}{
		{name: "no mechanics", params: Params{Precision: 4}},
		{name: "burn", params: Params{Precision: 4, BurnRate: dec("0.01")}},
		{name: "inflation", params: Params{Precision: 4, InflationRate: dec("0.02")}},
		{name: "fee", params: Params{Precision: 4, TransactionFeePercentage: dec("0.5")}},
		{name: "everything", params: Params{
			Precision:                2,
			BurnRate:                 dec("0.01"),
			InflationRate:            dec("0.02"),
			TransactionFeePercentage: dec("1"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := testUsers(1000, 0, 500, 250)
			before := totalBalance(users)
			sim := NewBasicSimulator(tt.params, rand.New(rand.NewPCG(42, 42)))

			report, err := sim.ProcessInterval(users, 24)
			require.NoError(t, err)
			require.NotNil(t, report)

			// three funded users, 24 passes, every flip is counted once
			assert.Equal(t, uint64(3*24), report.SuccessfulTrades+report.FailedTrades)
			assert.Positive(t, report.SuccessfulTrades)
			assert.True(t, users[1].Balance.IsZero(), "empty balances never trade")

			if tt.params.BurnRate == nil {
				assert.True(t, report.TotalBurned.IsZero())
			} else {
				assert.True(t, report.TotalBurned.IsPositive())
			}
			if tt.params.InflationRate == nil {
				assert.True(t, report.TotalNewTokens.IsZero())
			} else {
				assert.True(t, report.TotalNewTokens.IsPositive())
			}

			if tt.params.TransactionFeePercentage == nil {
				want := before.Sub(report.ProfitLoss).Sub(report.TotalBurned).Add(report.TotalNewTokens)
				assert.True(t, want.Equal(totalBalance(users)), "want %s got %s", want, totalBalance(users))
			} else {
				upper := before.Sub(report.ProfitLoss).Sub(report.TotalBurned).Add(report.TotalNewTokens)
				assert.True(t, totalBalance(users).LessThanOrEqual(upper))
			}

			for _, u := range users {
				assert.False(t, u.Balance.IsNegative())
			}
		})
	}
}

func TestBasicSimulator_Deterministic(t *testing.T) {
	params := Params{Precision: 4, BurnRate: dec("0.05")}

	a := testUsers(100, 200, 300)
	b := testUsers(100, 200, 300)

	ra, err := NewBasicSimulator(params, rand.New(rand.NewPCG(9, 9))).ProcessInterval(a, 10)
	require.NoError(t, err)
	rb, err := NewBasicSimulator(params, rand.New(rand.NewPCG(9, 9))).ProcessInterval(b, 10)
	require.NoError(t, err)

	assert.Equal(t, ra.SuccessfulTrades, rb.SuccessfulTrades)
	assert.True(t, ra.ProfitLoss.Equal(rb.ProfitLoss))
	for i := range a {
		assert.True(t, a[i].Balance.Equal(b[i].Balance))
	}
}

func TestBasicSimulator_NoUsers(t *testing.T) {
	sim := NewBasicSimulator(Params{Precision: 4}, rand.New(rand.NewPCG(1, 1)))

	report, err := sim.ProcessInterval(nil, 24)
	require.NoError(t, err)
	assert.Zero(t, report.SuccessfulTrades)
	assert.Zero(t, report.FailedTrades)
}

func TestBasicSimulator_UnrepresentableBalance(t *testing.T) {
	users := []models.User{models.NewUser(decimal.New(1, 400))}
	sim := NewBasicSimulator(Params{Precision: 4}, rand.New(rand.NewPCG(1, 1)))

	// keep flipping until a successful trade touches the balance
	var err error
	for i := 0; i < 64 && err == nil; i++ {
		_, err = sim.ProcessInterval(users, 1)
	}
	assert.ErrorIs(t, err, numeric.ErrInvalidDecimal)
}
