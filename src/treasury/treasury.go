package treasury

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

// Treasury holds the engine's own asset balances: the fee currency used to
// pay the bridge and every transferable token. Balances are shared across
// all orders; there is no per-order reservation.
type Treasury struct {
	mu         sync.RWMutex
	balances   map[string]decimal.Decimal
	allowances map[string]map[string]decimal.Decimal // spender -> asset -> amount
}

func New() *Treasury {
	return &Treasury{
		balances:   make(map[string]decimal.Decimal),
		allowances: make(map[string]map[string]decimal.Decimal),
	}
}

// Balance returns the current balance for asset, zero when unknown.
func (t *Treasury) Balance(asset string) decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()

	bal, ok := t.balances[asset]
	if !ok {
		return decimal.Zero
	}
	return bal
}

// Deposit credits the treasury with amount of asset.
func (t *Treasury) Deposit(asset string, amount decimal.Decimal) error {
	if asset == "" {
		return fmt.Errorf("treasury: empty asset")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("treasury: non-positive deposit %s", amount)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.balances[asset] = t.balanceLocked(asset).Add(amount)

	logger.WithFields(map[string]interface{}{
		"component": "Treasury",
		"asset":     asset,
		"amount":    amount.String(),
	}).Debug("Deposit credited")

	return nil
}

// Approve grants spender a one-shot allowance of exactly amount of asset,
// replacing any previous allowance for the pair.
func (t *Treasury) Approve(spender, asset string, amount decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	byAsset, ok := t.allowances[spender]
	if !ok {
		byAsset = make(map[string]decimal.Decimal)
		t.allowances[spender] = byAsset
	}
	byAsset[asset] = amount
}

// Allowance returns the remaining allowance for the spender/asset pair.
func (t *Treasury) Allowance(spender, asset string) decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()

	byAsset, ok := t.allowances[spender]
	if !ok {
		return decimal.Zero
	}
	amt, ok := byAsset[asset]
	if !ok {
		return decimal.Zero
	}
	return amt
}

// Spend consumes spender's allowance for asset and debits the balance.
// Fails when the allowance or the balance is short; on failure nothing is
// mutated.
func (t *Treasury) Spend(spender, asset string, amount decimal.Decimal) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	byAsset := t.allowances[spender]
	allowance := decimal.Zero
	if byAsset != nil {
		allowance = byAsset[asset]
	}
	if allowance.LessThan(amount) {
		return fmt.Errorf("treasury: allowance %s below spend %s for %s/%s", allowance, amount, spender, asset)
	}

	bal := t.balanceLocked(asset)
	if bal.LessThan(amount) {
		return fmt.Errorf("treasury: balance %s below spend %s for %s", bal, amount, asset)
	}

	byAsset[asset] = allowance.Sub(amount)
	t.balances[asset] = bal.Sub(amount)

	return nil
}

// Withdraw debits amount of asset without an allowance. Used by the
// owner-facing emergency withdrawal.
func (t *Treasury) Withdraw(asset string, amount decimal.Decimal) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	bal := t.balanceLocked(asset)
	if bal.LessThan(amount) {
		return fmt.Errorf("treasury: balance %s below withdrawal %s for %s", bal, amount, asset)
	}
	t.balances[asset] = bal.Sub(amount)

	logger.WithFields(map[string]interface{}{
		"component": "Treasury",
		"asset":     asset,
		"amount":    amount.String(),
	}).Info("Withdrawal debited")

	return nil
}

func (t *Treasury) balanceLocked(asset string) decimal.Decimal {
	bal, ok := t.balances[asset]
	if !ok {
		return decimal.Zero
	}
	return bal
}
