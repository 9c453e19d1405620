package core

import (
	"RouterLedger/internal/command"
	"RouterLedger/internal/observability"
	"RouterLedger/internal/router"
	"RouterLedger/internal/state"
	"RouterLedger/internal/store"
	"encoding/binary"
	"errors"
	"sync"
	"time"
)

// ErrDuplicateCommand marks a command whose id has already been applied.
// Callers treat it as a final answer, not a failure.
var ErrDuplicateCommand = errors.New("duplicate command")

// Output is what the engine emits for every applied operation.
type Output struct {
	Sequence  int64
	Envelope  command.Envelope
	Response  *router.Response
	StateHash [32]byte
}

// Engine is the host shell around the pure router core. It owns the ledger
// store and the global sequence, serializes mutating calls, and realizes the
// all-or-nothing contract: every call runs against a staged overlay that is
// committed on success and discarded on any error.
type Engine struct {
	mu sync.RWMutex

	kv       *store.MemStore
	opts     router.Options
	sequence int64

	hasher      *StateHasher
	idempotency *IdempotencyChecker
	metrics     *observability.Metrics

	persistChan chan<- Output
	publishChan chan<- Output
}

// EngineConfig carries the engine's construction-time dependencies.
type EngineConfig struct {
	StartSequence int64
	RouterOptions router.Options
	PersistChan   chan<- Output
	PublishChan   chan<- Output
	DBChecker     DBIdempotencyChecker
	Metrics       *observability.Metrics
}

func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{
		kv:          store.NewMemStore(),
		opts:        cfg.RouterOptions,
		sequence:    cfg.StartSequence,
		hasher:      NewStateHasher(),
		idempotency: NewIdempotencyChecker(100_000, cfg.DBChecker),
		metrics:     cfg.Metrics,
		persistChan: cfg.PersistChan,
		publishChan: cfg.PublishChan,
	}
}

// Initialize performs cold-start instantiation of the ledger state.
func (e *Engine) Initialize(admin, feeCollector, orderBook, liquidityFactory string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	stage := store.NewStaged(e.kv)
	if _, err := router.New(stage, e.opts).Instantiate(admin, feeCollector, orderBook, liquidityFactory); err != nil {
		stage.Discard()
		return err
	}
	stage.Commit()
	return nil
}

// Execute applies one command envelope. On success the staged writes are
// committed, the sequence advances, and an Output goes to the persist
// channel (blocking, backpressure) and the publish channel (non-blocking,
// drop-ok). On any error nothing is committed and nothing is emitted.
func (e *Engine) Execute(env command.Envelope) (*router.Response, error) {
	start := time.Now()
	method := env.Type.String()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.idempotency.IsDuplicate(method, env.ID.String()) {
		if e.metrics != nil {
			e.metrics.OpsRejected.WithLabelValues(method, "duplicate").Inc()
		}
		return nil, ErrDuplicateCommand
	}

	stage := store.NewStaged(e.kv)
	r := router.New(stage, e.opts)

	call := router.Call{
		Sender: env.Sender,
		Funds:  env.Funds,
		Now:    env.Timestamp.Unix(),
	}

	resp, err := r.Execute(call, env.Command)
	if err != nil {
		stage.Discard()
		if e.metrics != nil {
			e.metrics.OpsRejected.WithLabelValues(method, router.Code(err)).Inc()
		}
		return nil, err
	}

	digest := stateDigest(stage)
	stateHash := e.hasher.ComputeHash(e.sequence, digest)
	stage.Commit()

	out := Output{
		Sequence:  e.sequence,
		Envelope:  env,
		Response:  resp,
		StateHash: stateHash,
	}
	e.sequence++

	e.emit(out)
	e.idempotency.MarkProcessed(method, env.ID.String())
	e.recordMetrics(env, resp, method, start)

	return resp, nil
}

// emit sends one output downstream. The persist channel uses a blocking
// send: the engine stalls until the persistence worker drains, so no
// applied operation is ever lost. The publish channel drops on full;
// subscribers can always re-read the op log.
func (e *Engine) emit(out Output) {
	if e.persistChan != nil {
		select {
		case e.persistChan <- out:
		default:
			if e.metrics != nil {
				e.metrics.PersistBackpressure.Inc()
			}
			e.persistChan <- out
		}
	}

	if e.publishChan != nil {
		select {
		case e.publishChan <- out:
		default:
			if e.metrics != nil {
				e.metrics.PublishDrops.Inc()
			}
		}
	}
}

func (e *Engine) recordMetrics(env command.Envelope, resp *router.Response, method string, start time.Time) {
	if e.metrics == nil {
		return
	}

	e.metrics.OpsApplied.WithLabelValues(method).Inc()
	e.metrics.OpDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	e.metrics.Sequence.Set(float64(e.sequence))

	if len(resp.Transfers) > 0 {
		e.metrics.TransfersEmitted.WithLabelValues(method).Add(float64(len(resp.Transfers)))
	}

	switch cmd := env.Command.(type) {
	case *command.MarketTrade:
		e.metrics.TradesExecuted.WithLabelValues(cmd.AssetIn, cmd.AssetOut).Inc()
		for _, tr := range resp.Transfers {
			e.metrics.FeesCollected.WithLabelValues(tr.Asset).Add(float64(tr.Amount))
		}
	case *command.CreateLimitOrder:
		e.metrics.OrdersCreated.Inc()
	case *command.CancelOrder:
		e.metrics.OrdersCancelled.Inc()
	}
}

// stateDigest builds canonical bytes over the staged writes, keys in
// ascending order. A deleted key contributes a tombstone marker so that
// delete and set-to-empty hash differently.
func stateDigest(stage *store.Staged) []byte {
	keys := stage.PendingKeys()
	digest := make([]byte, 0, len(keys)*48)

	for _, key := range keys {
		digest = binary.AppendUvarint(digest, uint64(len(key)))
		digest = append(digest, key...)

		value := stage.PendingValue(key)
		if value == nil {
			digest = append(digest, 0x00)
			continue
		}
		digest = append(digest, 0x01)
		digest = binary.AppendUvarint(digest, uint64(len(value)))
		digest = append(digest, value...)
	}

	return digest
}

// WarmIdempotency preloads recently applied composite keys
// ("method:command_id") into the dedup LRU after a restart.
func (e *Engine) WarmIdempotency(keys []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.idempotency.lru.WarmFromKeys(keys)
}

// Sequence returns the next sequence number to be assigned.
func (e *Engine) Sequence() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sequence
}

// StateHash returns the current chain tip.
func (e *Engine) StateHash() [32]byte {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hasher.PrevHash()
}

// Snapshot exports the full committed state plus the sequence it is
// current as of.
func (e *Engine) Snapshot() (int64, map[string][]byte) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sequence, e.kv.Export()
}

// Restore replaces the engine state from a snapshot. Callers run this
// before serving traffic.
func (e *Engine) Restore(sequence int64, entries map[string][]byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.kv.Restore(entries)
	e.sequence = sequence
}

// RestoreStateHash resumes the hash chain at the snapshot's tip.
func (e *Engine) RestoreStateHash(tip [32]byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hasher.Restore(tip)
}

// --- Queries (read lock, committed state only) ---

func (e *Engine) reader() *router.Router {
	return router.New(e.kv, e.opts)
}

func (e *Engine) Config() (state.Config, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reader().Config()
}

func (e *Engine) Order(orderID string) (*state.Order, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reader().Order(orderID)
}

func (e *Engine) UserOrders(user string) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reader().UserOrders(user)
}

func (e *Engine) UserLiquidity(user, asset string) (int64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reader().UserLiquidity(user, asset)
}

func (e *Engine) FeeInfo(asset string) (state.FeeInfo, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reader().FeeInfo(asset)
}

func (e *Engine) Stats() (state.Stats, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reader().Stats()
}
