package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		ID:       1,
		Amount:   dec("10"),
		Currency: "EUR",
		Category: "food",
		Type:     Expense,
		Date:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, good.Validate())

	bads := map[string]struct {
		mutate func(*Transaction)
		want   error
	}{
		"zero amount":     {func(tx *Transaction) { tx.Amount = dec("0") }, ErrInvalidAmount},
		"negative amount": {func(tx *Transaction) { tx.Amount = dec("-5") }, ErrInvalidAmount},
		"bad currency":    {func(tx *Transaction) { tx.Currency = "euro" }, ErrInvalidCurrency},
		"bad type":        {func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		"blank category":  {func(tx *Transaction) { tx.Category = "  " }, ErrEmptyCategory},
		"zero date":       {func(tx *Transaction) { tx.Date = time.Time{} }, ErrInvalidDate},
	}
	for name, tc := range bads {
		t.Run(name, func(t *testing.T) {
			tx := good
			tc.mutate(&tx)
			assert.ErrorIs(t, tx.Validate(), tc.want)
		})
	}
}

func TestTransactionPatchApply(t *testing.T) {
	tx := Transaction{ID: 7, Amount: dec("10"), Currency: "EUR", Category: "food", Description: "lunch", Type: Expense}

	desc := "dinner"
	amount := dec("25.5")
	got := TransactionPatch{Description: &desc, Amount: &amount}.Apply(tx)

	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, "dinner", got.Description)
	assert.True(t, got.Amount.Equal(amount))
	assert.Equal(t, "food", got.Category)
	assert.Equal(t, "lunch", tx.Description, "original must be untouched")
}

func TestNewCategory(t *testing.T) {
	c, err := NewCategory("  Pet   Supplies ")
	require.NoError(t, err)
	assert.Equal(t, Category{ID: "pet-supplies", Label: "Pet   Supplies"}, c)

	_, err = NewCategory("   ")
	assert.ErrorIs(t, err, ErrEmptyLabel)
}

func TestDefaultCategories(t *testing.T) {
	cats := DefaultCategories()
	require.Len(t, cats, 7)
	assert.Equal(t, "food", cats[0].ID)
	cats[0].ID = "changed"
	assert.Equal(t, "food", DefaultCategories()[0].ID)
}
