package engine

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"crosstrader/src/bridge"
	"crosstrader/src/model"
	"crosstrader/src/oracle"
	"crosstrader/src/treasury"
)

// bridgeSpender names the router in the treasury allowance map. Approvals
// granted to it are one-shot: exactly the fee and exactly the transfer
// amount per dispatch.
const bridgeSpender = "bridge_router"

// Engine is the order scheduling and execution core. All state-mutating
// calls are serialized behind one mutex: each external call runs to
// completion atomically, mirroring the transactional platform the protocol
// assumes. Scheduling itself is external: a polling automation caller
// invokes CheckUpkeep then PerformUpkeep on its own cadence; the engine
// contains no timer.
type Engine struct {
	mu       sync.Mutex
	inUpkeep bool

	cfg Config
	log *logger.Entry
	now func() time.Time

	owner     string
	forwarder string

	router bridge.Router
	prices oracle.Source
	funds  *treasury.Treasury

	orders      map[uint64]*model.TradeOrder
	activeIDs   []uint64
	nextOrderID uint64

	allowedChains map[uint64]bool
	allowedTokens map[string]bool
	allowedFeeds  map[string]bool

	maxPriceAge time.Duration
	extraData   string

	// dispatchIndex maps in-flight dispatch ids back to their order so
	// delivery receipts can settle the history rings.
	dispatchIndex map[string]uint64
}

func New(owner string, cfg Config, router bridge.Router, prices oracle.Source, funds *treasury.Treasury) *Engine {
	return &Engine{
		cfg:           cfg,
		log:           logger.WithField("component", "Engine"),
		now:           time.Now,
		owner:         owner,
		router:        router,
		prices:        prices,
		funds:         funds,
		orders:        make(map[uint64]*model.TradeOrder),
		allowedChains: make(map[uint64]bool),
		allowedTokens: make(map[string]bool),
		allowedFeeds:  make(map[string]bool),
		maxPriceAge:   cfg.MaxPriceAge,
		dispatchIndex: make(map[string]uint64),
	}
}

// WithNow overrides the clock. Useful for tests.
func (e *Engine) WithNow(now func() time.Time) *Engine {
	e.now = now
	return e
}

func (e *Engine) ownerOnly(caller string) error {
	if caller != e.owner {
		return ErrUnauthorized
	}
	return nil
}

// automationCaller reports whether caller may drive the execute phase: the
// configured forwarder, or the owner while no forwarder is set (bootstrap
// and testing mode).
func (e *Engine) automationCaller(caller string) bool {
	if e.forwarder == "" {
		return caller == e.owner
	}
	return caller == e.forwarder
}

// TransferSpec carries the payload and execution-control fields shared by
// all three order kinds.
type TransferSpec struct {
	Token            string
	Amount           decimal.Decimal
	DestinationChain uint64
	ReceiverContract string
	Recipient        string
	Action           string
	Recurring        bool
	MaxExecutions    uint64
	Deadline         time.Time
}

func (e *Engine) validateSpec(spec TransferSpec) error {
	if spec.Token == "" {
		return &ValidationError{Field: "token", Detail: "empty address"}
	}
	if !e.allowedTokens[spec.Token] {
		return &ValidationError{Field: "token", Detail: "not allowlisted"}
	}
	if spec.Amount.LessThanOrEqual(decimal.Zero) {
		return &ValidationError{Field: "amount", Detail: "must be positive"}
	}
	if !e.allowedChains[spec.DestinationChain] {
		return &ValidationError{Field: "destination_chain", Detail: "not allowlisted"}
	}
	if spec.ReceiverContract == "" {
		return &ValidationError{Field: "receiver_contract", Detail: "empty address"}
	}
	if spec.Recipient == "" {
		return &ValidationError{Field: "recipient", Detail: "empty address"}
	}
	if spec.Action == "" {
		return &ValidationError{Field: "action", Detail: "empty action string"}
	}
	return nil
}

func (e *Engine) newOrder(caller string, spec TransferSpec, trigger model.TriggerType, now time.Time) *model.TradeOrder {
	return &model.TradeOrder{
		Creator:          caller,
		CreatedAt:        now,
		TriggerType:      trigger,
		Status:           model.OrderStatusActive,
		Token:            spec.Token,
		Amount:           spec.Amount,
		DestinationChain: spec.DestinationChain,
		ReceiverContract: spec.ReceiverContract,
		Recipient:        spec.Recipient,
		Action:           spec.Action,
		Recurring:        spec.Recurring,
		MaxExecutions:    spec.MaxExecutions,
		Deadline:         spec.Deadline,
	}
}

// CreateTimedOrder registers a TIME_BASED order. The first evaluation is
// always time-eligible regardless of interval, so a fresh order can fire
// on the very next cycle.
func (e *Engine) CreateTimedOrder(caller string, spec TransferSpec, interval time.Duration) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ownerOnly(caller); err != nil {
		return 0, err
	}
	if err := e.validateSpec(spec); err != nil {
		return 0, err
	}
	if interval <= 0 {
		return 0, &ValidationError{Field: "interval", Detail: "must be positive"}
	}

	order := e.newOrder(caller, spec, model.TriggerTimeBased, e.now())
	order.Interval = interval

	return e.createLocked(order)
}

// CreatePriceOrder registers a PRICE_THRESHOLD order. The feed's decimal
// count is read once here and cached on the order. Threshold is 18-decimal
// fixed point.
func (e *Engine) CreatePriceOrder(caller string, spec TransferSpec, feed string, threshold decimal.Decimal, executeAbove bool) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ownerOnly(caller); err != nil {
		return 0, err
	}
	if err := e.validateSpec(spec); err != nil {
		return 0, err
	}
	if feed == "" {
		return 0, &ValidationError{Field: "price_feed", Detail: "empty address"}
	}
	if !e.allowedFeeds[feed] {
		return 0, &ValidationError{Field: "price_feed", Detail: "not allowlisted"}
	}
	if threshold.LessThanOrEqual(decimal.Zero) {
		return 0, &ValidationError{Field: "price_threshold", Detail: "must be positive"}
	}

	decimals, err := e.prices.Decimals(feed)
	if err != nil {
		return 0, &ValidationError{Field: "price_feed", Detail: "decimals unavailable: " + err.Error()}
	}

	order := e.newOrder(caller, spec, model.TriggerPriceThreshold, e.now())
	order.PriceFeed = feed
	order.PriceFeedDecimals = decimals
	order.PriceThreshold = threshold
	order.ExecuteAbove = executeAbove

	return e.createLocked(order)
}

// CreateBalanceOrder registers a BALANCE_TRIGGER order that fires once the
// treasury's balance of the order token reaches balanceRequired.
func (e *Engine) CreateBalanceOrder(caller string, spec TransferSpec, balanceRequired decimal.Decimal) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ownerOnly(caller); err != nil {
		return 0, err
	}
	if err := e.validateSpec(spec); err != nil {
		return 0, err
	}
	if balanceRequired.LessThanOrEqual(decimal.Zero) {
		return 0, &ValidationError{Field: "balance_required", Detail: "must be positive"}
	}

	order := e.newOrder(caller, spec, model.TriggerBalance, e.now())
	order.BalanceRequired = balanceRequired

	return e.createLocked(order)
}

// CancelOrder moves an order into the terminal CANCELLED status and drops
// it from the active set. Permanent.
func (e *Engine) CancelOrder(caller string, orderID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ownerOnly(caller); err != nil {
		return err
	}

	order := e.getLocked(orderID)
	if !order.Exists() {
		return ErrNotFound
	}
	if order.Status == model.OrderStatusExecuted || order.Status == model.OrderStatusCancelled {
		return ErrOrderFinalized
	}

	order.Status = model.OrderStatusCancelled
	e.removeFromActiveLocked(orderID)

	e.log.WithField("order_id", orderID).Info("Order cancelled")
	return nil
}

// PauseOrder toggles ACTIVE and PAUSED. Paused orders stay in the active
// set and are skipped by the evaluator, so they can resume later.
func (e *Engine) PauseOrder(caller string, orderID uint64, paused bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ownerOnly(caller); err != nil {
		return err
	}

	order := e.getLocked(orderID)
	if !order.Exists() {
		return ErrNotFound
	}
	if order.Status == model.OrderStatusExecuted || order.Status == model.OrderStatusCancelled {
		return ErrOrderFinalized
	}

	if paused {
		order.Status = model.OrderStatusPaused
	} else {
		order.Status = model.OrderStatusActive
	}

	e.log.WithFields(map[string]interface{}{
		"order_id": orderID,
		"paused":   paused,
	}).Info("Order pause toggled")
	return nil
}

// --- administrative configuration ---

func (e *Engine) SetChainAllowed(caller string, chain uint64, allowed bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ownerOnly(caller); err != nil {
		return err
	}
	if allowed {
		e.allowedChains[chain] = true
	} else {
		delete(e.allowedChains, chain)
	}
	return nil
}

func (e *Engine) SetTokenAllowed(caller string, token string, allowed bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ownerOnly(caller); err != nil {
		return err
	}
	if token == "" {
		return &ValidationError{Field: "token", Detail: "empty address"}
	}
	if allowed {
		e.allowedTokens[token] = true
	} else {
		delete(e.allowedTokens, token)
	}
	return nil
}

func (e *Engine) SetFeedAllowed(caller string, feed string, allowed bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ownerOnly(caller); err != nil {
		return err
	}
	if feed == "" {
		return &ValidationError{Field: "price_feed", Detail: "empty address"}
	}
	if allowed {
		e.allowedFeeds[feed] = true
	} else {
		delete(e.allowedFeeds, feed)
	}
	return nil
}

// SetForwarder configures the automation caller allowed to drive
// PerformUpkeep. Empty keeps the owner-fallback bootstrap mode.
func (e *Engine) SetForwarder(caller string, forwarder string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ownerOnly(caller); err != nil {
		return err
	}
	e.forwarder = forwarder
	e.log.WithField("forwarder", forwarder).Info("Forwarder configured")
	return nil
}

func (e *Engine) SetMaxPriceAge(caller string, maxAge time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ownerOnly(caller); err != nil {
		return err
	}
	if maxAge < 0 {
		return &ValidationError{Field: "max_price_age", Detail: "must not be negative"}
	}
	e.maxPriceAge = maxAge
	return nil
}

// SetExtraData configures the reserved extra-data blob copied into every
// outbound message.
func (e *Engine) SetExtraData(caller string, extraData string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ownerOnly(caller); err != nil {
		return err
	}
	e.extraData = extraData
	return nil
}

// EmergencyWithdraw pulls stuck balances out of the treasury. Owner-only.
func (e *Engine) EmergencyWithdraw(caller string, asset string, amount decimal.Decimal) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ownerOnly(caller); err != nil {
		return err
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return &ValidationError{Field: "amount", Detail: "must be positive"}
	}
	return e.funds.Withdraw(asset, amount)
}

// ConfirmDispatch settles a delivery receipt: the dispatch id moves from
// the order's pending history into the completed or failed one. Receipts
// for unknown ids are ignored.
func (e *Engine) ConfirmDispatch(dispatchID string, delivered bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	orderID, ok := e.dispatchIndex[dispatchID]
	if !ok {
		e.log.WithField("dispatch_id", dispatchID).Debug("Receipt for unknown dispatch, ignoring")
		return
	}
	delete(e.dispatchIndex, dispatchID)

	order := e.getLocked(orderID)
	if !order.Exists() {
		return
	}

	if delivered {
		order.CompletedDispatches.Push(dispatchID)
	} else {
		order.FailedDispatches.Push(dispatchID)
	}

	e.log.WithFields(map[string]interface{}{
		"order_id":    orderID,
		"dispatch_id": dispatchID,
		"delivered":   delivered,
	}).Info("Dispatch receipt settled")
}

// --- read accessors ---

// GetOrder returns a copy of the stored record.
func (e *Engine) GetOrder(orderID uint64) (model.TradeOrder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	order := e.getLocked(orderID)
	if !order.Exists() {
		return model.TradeOrder{}, ErrNotFound
	}
	return *order, nil
}

// ListOrders returns copies of every order ever created, ascending by id.
func (e *Engine) ListOrders() []model.TradeOrder {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]model.TradeOrder, 0, len(e.orders))
	for id := uint64(1); id <= e.nextOrderID; id++ {
		if order, ok := e.orders[id]; ok {
			out = append(out, *order)
		}
	}
	return out
}

// ActiveOrderIDs returns a copy of the active-id list in iteration order.
func (e *Engine) ActiveOrderIDs() []uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]uint64, len(e.activeIDs))
	copy(out, e.activeIDs)
	return out
}

func (e *Engine) Owner() string {
	return e.owner
}

func (e *Engine) Forwarder() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.forwarder
}

// Funds exposes the treasury backing this engine. The treasury carries its
// own lock, so handing it out does not bypass engine consistency.
func (e *Engine) Funds() *treasury.Treasury {
	return e.funds
}
