package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKey_NormalisesMissingVariants(t *testing.T) {
	k := NewKey(7, "  ", "")
	assert.Equal(t, Key{ProductID: 7, Size: NoSize, Color: NoColor}, k)
	assert.Equal(t, "7:no-size:no-color", k.String())

	assert.Equal(t, NewKey(7, "", ""), NewKey(7, NoSize, NoColor))
	assert.NotEqual(t, NewKey(7, "M", ""), NewKey(7, "L", ""))
}

func TestParseKey(t *testing.T) {
	k, err := ParseKey("12:M:navy")
	require.NoError(t, err)
	assert.Equal(t, NewKey(12, "M", "navy"), k)

	for _, bad := range []string{"", "12", "12:M", "x:M:navy", "0:M:navy"} {
		_, err := ParseKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewCart_Totals(t *testing.T) {
	uid := uint(1)
	cart := newCart(Owner{UserID: &uid, SessionID: "ignored"}, []Line{
		{Item: Item{ProductID: 1, Size: NoSize, Color: NoColor, Quantity: 2, Price: 1000}, Selected: true},
		{Item: Item{ProductID: 2, Size: "M", Color: NoColor, Quantity: 1, Price: 5000}},
	})

	assert.Empty(t, cart.SessionID)
	assert.Equal(t, "1:no-size:no-color", cart.Items[0].ID)
	assert.Equal(t, int64(2000), cart.Items[0].LineTotal)
	assert.Equal(t, CartTotals{
		ItemCount:        2,
		TotalQuantity:    3,
		SubTotal:         7000,
		SelectedCount:    1,
		SelectedQuantity: 2,
		SelectedAmount:   2000,
	}, cart.Totals)

	empty := newCart(Owner{SessionID: "s1"}, nil)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, "s1", empty.SessionID)
}
