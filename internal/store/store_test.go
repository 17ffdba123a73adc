package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []core.TransactionEvent
}

func (n *recordingNotifier) Notify(_ context.Context, ev core.TransactionEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

// failingKV fails every Put once armed.
type failingKV struct {
	*storage.Memory
	fail bool
}

func (f *failingKV) Put(ctx context.Context, key string, value []byte) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.Memory.Put(ctx, key, value)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTx(amount string, typ core.TxType) core.Transaction {
	return core.Transaction{
		Amount:      decimal.RequireFromString(amount),
		Currency:    "eur",
		Category:    "food",
		Description: "lunch",
		Type:        typ,
		Date:        time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func openMemory(t *testing.T, opts ...Option) (*Store, *storage.Memory) {
	t.Helper()
	kv := storage.NewMemory()
	s, err := Open(context.Background(), kv, opts...)
	require.NoError(t, err)
	return s, kv
}

func TestOpen_Defaults(t *testing.T) {
	s, _ := openMemory(t)
	assert.Equal(t, "EUR", s.BaseCurrency())
	assert.Equal(t, core.DefaultCategories(), s.Categories())
	assert.Empty(t, s.Transactions())
	assert.Empty(t, s.Rates())
}

func TestAddTransaction(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	n := &recordingNotifier{}
	s, _ := openMemory(t, WithClock(fixedClock(now)), WithNotifier(n))
	ctx := context.Background()

	first, err := s.AddTransaction(ctx, newTx("10", core.Expense))
	require.NoError(t, err)
	second, err := s.AddTransaction(ctx, newTx("20", core.Income))
	require.NoError(t, err)

	assert.Equal(t, now.UnixMilli(), first.ID)
	assert.Equal(t, now.UnixMilli()+1, second.ID, "ids stay strictly increasing under a frozen clock")
	assert.Equal(t, "EUR", first.Currency)

	txs := s.Transactions()
	require.Len(t, txs, 2)
	assert.Equal(t, second.ID, txs[0].ID, "newest insertion first")

	require.Len(t, n.events, 2)
	assert.Equal(t, core.EventCreated, n.events[0].Type)
	assert.Equal(t, first.ID, n.events[0].ID)
}

func TestAddTransaction_Invalid(t *testing.T) {
	s, kv := openMemory(t)
	bad := newTx("0", core.Expense)
	_, err := s.AddTransaction(context.Background(), bad)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	bad = newTx("5", "transfer")
	_, err = s.AddTransaction(context.Background(), bad)
	assert.ErrorIs(t, err, core.ErrInvalidType)

	_, err = kv.Get(context.Background(), FinanceKey)
	assert.ErrorIs(t, err, storage.ErrNotFound, "nothing persisted")
}

func TestUpdateTransaction(t *testing.T) {
	n := &recordingNotifier{}
	s, _ := openMemory(t, WithNotifier(n))
	ctx := context.Background()
	tx, err := s.AddTransaction(ctx, newTx("10", core.Expense))
	require.NoError(t, err)

	amount := decimal.RequireFromString("12.5")
	desc := "dinner"
	got, err := s.UpdateTransaction(ctx, tx.ID, core.TransactionPatch{Amount: &amount, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)
	assert.True(t, amount.Equal(got.Amount))
	assert.Equal(t, "dinner", got.Description)
	assert.Equal(t, "food", got.Category)

	stored, err := s.Transaction(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, got, stored)
	assert.Equal(t, core.EventUpdated, n.events[len(n.events)-1].Type)

	zero := decimal.Zero
	_, err = s.UpdateTransaction(ctx, tx.ID, core.TransactionPatch{Amount: &zero})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	stored, _ = s.Transaction(tx.ID)
	assert.True(t, amount.Equal(stored.Amount), "rejected patch leaves state untouched")
}

func TestUnknownID(t *testing.T) {
	s, _ := openMemory(t)
	ctx := context.Background()

	_, err := s.UpdateTransaction(ctx, 42, core.TransactionPatch{})
	assert.ErrorIs(t, err, ErrTransactionNotFound)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, 42), ErrTransactionNotFound)
	_, err = s.Transaction(42)
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestDeleteTransaction(t *testing.T) {
	n := &recordingNotifier{}
	s, _ := openMemory(t, WithNotifier(n))
	ctx := context.Background()
	a, _ := s.AddTransaction(ctx, newTx("1", core.Expense))
	b, _ := s.AddTransaction(ctx, newTx("2", core.Expense))

	require.NoError(t, s.DeleteTransaction(ctx, a.ID))
	txs := s.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, b.ID, txs[0].ID)
	assert.Equal(t, core.TransactionEvent{Type: core.EventDeleted, ID: a.ID, Timestamp: n.events[2].Timestamp}, n.events[2])
}

func TestCategories(t *testing.T) {
	s, _ := openMemory(t)
	ctx := context.Background()

	c, err := core.NewCategory("Pet Supplies")
	require.NoError(t, err)
	added, err := s.AddCategory(ctx, c)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AddCategory(ctx, core.Category{ID: "pet-supplies", Label: "Other label"})
	require.NoError(t, err)
	assert.False(t, added, "duplicate id is a no-op")

	cats := s.Categories()
	require.Len(t, cats, 8)
	assert.Equal(t, core.Category{ID: "pet-supplies", Label: "Pet Supplies"}, cats[7])

	require.NoError(t, s.DeleteCategory(ctx, "food"))
	require.NoError(t, s.DeleteCategory(ctx, "nope"))
	assert.Len(t, s.Categories(), 7)

	_, err = s.AddCategory(ctx, core.Category{})
	assert.ErrorIs(t, err, core.ErrEmptyCategory)
}

func TestDeleteCategoryKeepsDanglingTransactions(t *testing.T) {
	s, _ := openMemory(t)
	ctx := context.Background()
	tx, _ := s.AddTransaction(ctx, newTx("3", core.Expense))
	require.NoError(t, s.DeleteCategory(ctx, "food"))
	got, err := s.Transaction(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "food", got.Category)
}

func TestBaseCurrencyAndRates(t *testing.T) {
	s, _ := openMemory(t)
	ctx := context.Background()

	require.NoError(t, s.SetBaseCurrency(ctx, " usd "))
	assert.Equal(t, "USD", s.BaseCurrency())
	assert.ErrorIs(t, s.SetBaseCurrency(ctx, "dollars"), core.ErrInvalidCurrency)

	table := core.RateTable{"EUR": decimal.RequireFromString("0.9")}
	s.SetRates(table)
	table["EUR"] = decimal.Zero
	assert.True(t, s.Rates()["EUR"].Equal(decimal.RequireFromString("0.9")))

	txs, rates, base := s.View()
	assert.Empty(t, txs)
	assert.Len(t, rates, 1)
	assert.Equal(t, "USD", base)
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "fintrack.db"))
	require.NoError(t, err)
	defer kv.Close()

	s, err := Open(ctx, kv)
	require.NoError(t, err)
	_, err = s.AddTransaction(ctx, newTx("10.25", core.Expense))
	require.NoError(t, err)
	_, err = s.AddCategory(ctx, core.Category{ID: "gifts", Label: "Gifts"})
	require.NoError(t, err)
	require.NoError(t, s.SetBaseCurrency(ctx, "GBP"))
	s.SetRates(core.RateTable{"USD": decimal.RequireFromString("1.3")})

	reopened, err := Open(ctx, kv)
	require.NoError(t, err)
	want, got := s.Snapshot(), reopened.Snapshot()
	assert.Equal(t, want.BaseCurrency, got.BaseCurrency)
	assert.Equal(t, want.Categories, got.Categories)
	require.Len(t, got.Transactions, 1)
	assert.Equal(t, want.Transactions[0].ID, got.Transactions[0].ID)
	assert.True(t, want.Transactions[0].Amount.Equal(got.Transactions[0].Amount))
	assert.True(t, want.Transactions[0].Date.Equal(got.Transactions[0].Date))
	assert.Empty(t, reopened.Rates(), "rates are never persisted")

	// ids continue after the highest loaded one
	next, err := reopened.AddTransaction(ctx, newTx("1", core.Expense))
	require.NoError(t, err)
	assert.Greater(t, next.ID, got.Transactions[0].ID)
}

func TestOpen_BrowserSnapshot(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	raw := `{"state":{"transactions":[{"id":1714550400000,"amount":25.5,"currency":"USD","category":"food","description":"Pizza","type":"expense","date":"2024-05-01T08:00:00.000Z"}],"baseCurrency":"ALL"},"version":0}`
	require.NoError(t, kv.Put(ctx, FinanceKey, []byte(raw)))

	s, err := Open(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, "ALL", s.BaseCurrency())
	assert.Equal(t, core.DefaultCategories(), s.Categories(), "absent categories fall back to defaults")
	txs := s.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, "Pizza", txs[0].Description)
	assert.True(t, decimal.RequireFromString("25.5").Equal(txs[0].Amount))
}

func TestOpen_MalformedSnapshot(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"not json", `{"state":`, nil},
		{"negative amount", `{"state":{"transactions":[{"id":1,"amount":-3,"currency":"EUR","category":"food","type":"expense","date":"2024-05-01T08:00:00Z"}]}}`, core.ErrInvalidAmount},
		{"bad base", `{"state":{"baseCurrency":"euro"}}`, core.ErrInvalidCurrency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := storage.NewMemory()
			require.NoError(t, kv.Put(context.Background(), FinanceKey, []byte(tt.raw)))
			_, err := Open(context.Background(), kv)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestPersistFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{Memory: storage.NewMemory()}
	n := &recordingNotifier{}
	s, err := Open(ctx, kv, WithNotifier(n))
	require.NoError(t, err)
	tx, err := s.AddTransaction(ctx, newTx("5", core.Expense))
	require.NoError(t, err)

	kv.fail = true
	_, err = s.AddTransaction(ctx, newTx("6", core.Expense))
	assert.Error(t, err)
	assert.Error(t, s.DeleteTransaction(ctx, tx.ID))
	assert.Error(t, s.SetBaseCurrency(ctx, "USD"))

	assert.Len(t, s.Transactions(), 1)
	assert.Equal(t, "EUR", s.BaseCurrency())
	assert.Len(t, n.events, 1, "failed mutations emit no events")
}

func TestConcurrentMutations(t *testing.T) {
	s, _ := openMemory(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddTransaction(ctx, newTx("1", core.Expense))
			assert.NoError(t, err)
			_ = s.Transactions()
		}()
	}
	wg.Wait()

	txs := s.Transactions()
	require.Len(t, txs, 20)
	seen := map[int64]bool{}
	for _, tx := range txs {
		assert.False(t, seen[tx.ID], "duplicate id %d", tx.ID)
		seen[tx.ID] = true
	}
}
