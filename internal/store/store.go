// Package store owns the canonical finance state: transactions, categories,
// the base currency and the current rate table. Every mutation persists a
// full snapshot before it becomes visible.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// FinanceKey is the storage key of the finance snapshot.
const FinanceKey = "finance-storage"

var ErrTransactionNotFound = errors.New("transaction not found")

// Snapshot is the persisted part of the state. The rate table is not
// persisted.
type Snapshot struct {
	Transactions []core.Transaction `json:"transactions"`
	BaseCurrency string             `json:"baseCurrency"`
	Categories   []core.Category    `json:"categories"`
}

// persisted wraps the snapshot the way the browser client stored it, so
// exported browser state loads unchanged.
type persisted struct {
	State   Snapshot `json:"state"`
	Version int      `json:"version"`
}

// Notifier receives an event after each committed transaction mutation.
type Notifier interface {
	Notify(ctx context.Context, ev core.TransactionEvent)
}

type Option func(*Store)

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentStore) }
}

// WithClock overrides time.Now, used for id assignment and event stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

type Store struct {
	kv       storage.KeyValue
	notifier Notifier
	logger   *log.Logger
	now      func() time.Time

	mu     sync.RWMutex
	state  Snapshot
	rates  core.RateTable
	lastID int64
}

// Open loads the snapshot from kv, or starts from defaults when none was
// ever written. A snapshot that cannot be decoded or holds an invalid
// transaction is an error.
func Open(ctx context.Context, kv storage.KeyValue, opts ...Option) (*Store, error) {
	s := &Store{
		kv:     kv,
		logger: log.Default().WithComponent(log.ComponentStore),
		now:    time.Now,
		rates:  core.RateTable{},
	}
	for _, opt := range opts {
		opt(s)
	}

	state, err := load(ctx, kv)
	if err != nil {
		return nil, err
	}
	s.state = state
	for _, tx := range state.Transactions {
		s.lastID = max(s.lastID, tx.ID)
	}

	s.logger.InfoContext(ctx, "Finance state loaded",
		log.FieldCount, len(state.Transactions),
		log.FieldBaseCurrency, state.BaseCurrency)
	return s, nil
}

func load(ctx context.Context, kv storage.KeyValue) (Snapshot, error) {
	def := Snapshot{
		Transactions: []core.Transaction{},
		BaseCurrency: core.DefaultBaseCurrency,
		Categories:   core.DefaultCategories(),
	}

	raw, err := kv.Get(ctx, FinanceKey)
	if errors.Is(err, storage.ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load %s: %w", FinanceKey, err)
	}

	var p persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		return Snapshot{}, fmt.Errorf("decode %s: %w", FinanceKey, err)
	}
	st := p.State
	if st.Transactions == nil {
		st.Transactions = def.Transactions
	}
	if st.Categories == nil {
		st.Categories = def.Categories
	}
	if st.BaseCurrency == "" {
		st.BaseCurrency = def.BaseCurrency
	}
	if !core.ValidCurrency(st.BaseCurrency) {
		return Snapshot{}, fmt.Errorf("decode %s: base currency %q: %w", FinanceKey, st.BaseCurrency, core.ErrInvalidCurrency)
	}
	for _, tx := range st.Transactions {
		if err := tx.Validate(); err != nil {
			return Snapshot{}, fmt.Errorf("decode %s: transaction %d: %w", FinanceKey, tx.ID, err)
		}
	}
	return st, nil
}

// commit persists next and, on success, makes it the current state.
// Callers hold the write lock.
func (s *Store) commit(ctx context.Context, next Snapshot) error {
	raw, err := json.Marshal(persisted{State: next})
	if err != nil {
		return fmt.Errorf("encode %s: %w", FinanceKey, err)
	}
	if err := s.kv.Put(ctx, FinanceKey, raw); err != nil {
		s.logger.LogError(ctx, "Persisting finance state failed", err, log.OpPersist, nil)
		return fmt.Errorf("persist %s: %w", FinanceKey, err)
	}
	s.state = next
	return nil
}

func (s *Store) notify(ctx context.Context, typ core.EventType, id int64) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, core.TransactionEvent{Type: typ, ID: id, Timestamp: s.now().UTC()})
}

// nextID returns the current Unix-millisecond time, bumped past the last
// issued id so ids stay strictly increasing.
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// Snapshot returns a deep copy of the persisted state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Transactions: slices.Clone(s.state.Transactions),
		BaseCurrency: s.state.BaseCurrency,
		Categories:   slices.Clone(s.state.Categories),
	}
}

// Transactions returns the list newest insertion first.
func (s *Store) Transactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.Transactions)
}

func (s *Store) Transaction(id int64) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, ErrTransactionNotFound)
	}
	return s.state.Transactions[i], nil
}

func (s *Store) indexOf(id int64) int {
	return slices.IndexFunc(s.state.Transactions, func(tx core.Transaction) bool { return tx.ID == id })
}

// AddTransaction assigns an id, prepends tx and persists.
func (s *Store) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.Currency = core.NormalizeCurrency(tx.Currency)
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	prevID := s.lastID
	tx.ID = s.nextID()
	next := s.cloneState()
	next.Transactions = append([]core.Transaction{tx}, next.Transactions...)
	if err := s.commit(ctx, next); err != nil {
		s.lastID = prevID
		s.mu.Unlock()
		return core.Transaction{}, err
	}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Transaction created",
		log.NewFields().
			WithTransaction(tx.ID, string(tx.Type), tx.Amount.String(), tx.Currency, tx.Category).
			WithOperation(log.OpCreate).ToSlice()...)
	s.notify(ctx, core.EventCreated, tx.ID)
	return tx, nil
}

// UpdateTransaction merges patch into the transaction with the given id.
func (s *Store) UpdateTransaction(ctx context.Context, id int64, patch core.TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", id, ErrTransactionNotFound)
	}
	tx := patch.Apply(s.state.Transactions[i])
	tx.Currency = core.NormalizeCurrency(tx.Currency)
	if err := tx.Validate(); err != nil {
		s.mu.Unlock()
		return core.Transaction{}, err
	}
	next := s.cloneState()
	next.Transactions[i] = tx
	if err := s.commit(ctx, next); err != nil {
		s.mu.Unlock()
		return core.Transaction{}, err
	}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Transaction updated",
		log.NewFields().
			WithTransaction(tx.ID, string(tx.Type), tx.Amount.String(), tx.Currency, tx.Category).
			WithOperation(log.OpUpdate).ToSlice()...)
	s.notify(ctx, core.EventUpdated, id)
	return tx, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("delete transaction %d: %w", id, ErrTransactionNotFound)
	}
	next := s.cloneState()
	next.Transactions = slices.Delete(next.Transactions, i, i+1)
	if err := s.commit(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Transaction deleted", log.FieldTransactionID, id, log.FieldOperation, log.OpDelete)
	s.notify(ctx, core.EventDeleted, id)
	return nil
}

func (s *Store) Categories() []core.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.Categories)
}

// AddCategory appends c unless a category with the same id exists; added
// is false in that case and nothing is written.
func (s *Store) AddCategory(ctx context.Context, c core.Category) (added bool, err error) {
	if c.ID == "" {
		return false, core.ErrEmptyCategory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.ContainsFunc(s.state.Categories, func(x core.Category) bool { return x.ID == c.ID }) {
		return false, nil
	}
	next := s.cloneState()
	next.Categories = append(next.Categories, c)
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteCategory removes the category with id. Transactions referencing it
// keep the id and display it literally. Unknown ids are a no-op.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.state.Categories, func(x core.Category) bool { return x.ID == id })
	if i < 0 {
		return nil
	}
	next := s.cloneState()
	next.Categories = slices.Delete(next.Categories, i, i+1)
	return s.commit(ctx, next)
}

func (s *Store) BaseCurrency() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.BaseCurrency
}

func (s *Store) SetBaseCurrency(ctx context.Context, code string) error {
	code = core.NormalizeCurrency(code)
	if !core.ValidCurrency(code) {
		return fmt.Errorf("base currency %q: %w", code, core.ErrInvalidCurrency)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if code == s.state.BaseCurrency {
		return nil
	}
	next := s.cloneState()
	next.BaseCurrency = code
	return s.commit(ctx, next)
}

// Rates returns a copy of the current rate table.
func (s *Store) Rates() core.RateTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rates.Clone()
}

// SetRates replaces the rate table wholesale. It is never persisted.
func (s *Store) SetRates(rates core.RateTable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates = rates.Clone()
}

// View returns transactions, rates and base currency read under one lock.
func (s *Store) View() ([]core.Transaction, core.RateTable, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.Transactions), s.rates.Clone(), s.state.BaseCurrency
}

// Ping checks the persistence backend.
func (s *Store) Ping(ctx context.Context) error {
	return s.kv.Ping(ctx)
}

func (s *Store) cloneState() Snapshot {
	return Snapshot{
		Transactions: slices.Clone(s.state.Transactions),
		BaseCurrency: s.state.BaseCurrency,
		Categories:   slices.Clone(s.state.Categories),
	}
}
