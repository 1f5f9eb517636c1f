// Package population synthesizes the user balances a simulation interval trades over.
package population

import (
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"github.com/songzhibin97/tokensim/internal/models"
	"github.com/songzhibin97/tokensim/internal/utils/numeric"
)

// Generate draws totalUsers balances that together hold supply.
//
// Steps:
//  1. Sample each raw balance uniformly in [0, supply/totalUsers), rounded to precision
//  2. Normalize every balance by supply/Σraw
//  3. Scale every balance by price
//  4. Hand out supply-Σbalances in 10^-precision units, one user after another
//
// Every step rounds to precision, so Σbalances stays within totalUsers units of supply
// when price is 1.
func Generate(rng *rand.Rand, totalUsers uint64, supply, price decimal.Decimal, precision int32) []models.User {
	if totalUsers == 0 {
		return []models.User{}
	}

	users := make([]models.User, totalUsers)
	n := decimal.NewFromUint64(totalUsers)
	maxBalance := supply.Div(n)

	total := decimal.Zero
	for i := range users {
		balance := numeric.Round(maxBalance.Mul(decimal.NewFromFloat(rng.Float64())), precision)
		total = total.Add(balance)
		users[i] = models.NewUser(balance)
	}

	if !total.IsZero() {
		factor := supply.Div(total)
		for i := range users {
			users[i].Balance = numeric.Round(users[i].Balance.Mul(factor), precision)
		}
	}

	for i := range users {
		users[i].Balance = numeric.Round(users[i].Balance.Mul(price), precision)
	}

	distributeLeftover(users, supply, precision)

	return users
}

// distributeLeftover gives each user the share of the leftover a sequential
// unit-by-unit pass would: every user gets ⌊units/n⌋ units and the first
// units mod n users one more.
func distributeLeftover(users []models.User, supply decimal.Decimal, precision int32) {
	sum := decimal.Zero
	for _, u := range users {
		sum = sum.Add(u.Balance)
	}

	leftover := supply.Sub(sum)
	unit := numeric.Unit(precision)
	if leftover.LessThan(unit) {
		return
	}

	units := leftover.Div(unit).Floor()
	q, r := units.QuoRem(decimal.NewFromInt(int64(len(users))), 0)
	share := q.Mul(unit)
	extra := r.IntPart()

	for i := range users {
		users[i].Balance = users[i].Balance.Add(share)
		if int64(i) < extra {
			users[i].Balance = users[i].Balance.Add(unit)
		}
	}
}
