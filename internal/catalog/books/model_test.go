package books

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"BIBLIO-backend/internal/inventory"
)

func TestIsAvailable(t *testing.T) {
	cases := []struct {
		name   string
		active bool
		inv    *inventory.Inventory
		want   bool
	}{
		{"active, qty 0", true, &inventory.Inventory{Quantity: 0}, false},
		{"active, qty 1", true, &inventory.Inventory{Quantity: 1}, true},
		{"active, qty 5", true, &inventory.Inventory{Quantity: 5}, true},
		{"inactive, qty 5", false, &inventory.Inventory{Quantity: 5}, false},
		{"active, no inventory row", true, nil, false},
		{"inactive, no inventory row", false, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := &Book{IsActive: tc.active, Inventory: tc.inv}
			assert.Equal(t, tc.want, b.IsAvailable())
		})
	}
}

func TestIsAvailable_MatchesRuleForAllQuantities(t *testing.T) {
	for _, active := range []bool{true, false} {
		for q := 0; q <= 10; q++ {
			got := IsAvailable(active, &inventory.Inventory{Quantity: q})
			assert.Equal(t, active && q > 0, got, "active=%v qty=%d", active, q)
		}
	}
}

func TestDetailInput_Apply(t *testing.T) {
	pages := 120
	lang := "es"
	d := DetailInput{Pages: &pages, Language: &lang}.Apply(nil)
	assert.True(t, d.Pages.Valid)
	assert.EqualValues(t, 120, d.Pages.Int64)
	assert.Equal(t, "es", d.Language.String)
	assert.False(t, d.Description.Valid)

	empty := ""
	desc := "Novela"
	d2 := DetailInput{Description: &desc, Language: &empty}.Apply(&d)
	assert.Equal(t, "Novela", d2.Description.String)
	assert.False(t, d2.Language.Valid)
	assert.EqualValues(t, 120, d2.Pages.Int64)
}
