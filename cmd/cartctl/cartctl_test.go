package main

import (
	"bytes"
	"testing"

	"utkal-mart/internal/session"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintCart(t *testing.T) {
	snap := session.Snapshot{
		Items: []session.Item{
			{ID: "item-1", ProductID: "p-1", Quantity: 2, Price: decimal.RequireFromString("12.50"),
				Product: &session.Product{Title: "Basmati Rice"}},
			{ID: "item-2", ProductID: "p-2", Quantity: 1, Price: decimal.RequireFromString("20.00")},
		},
		Total:     decimal.RequireFromString("45.00"),
		ItemCount: 3,
	}

	var out bytes.Buffer
	require.NoError(t, printCart(&out, snap))

	text := out.String()
	assert.Contains(t, text, "Basmati Rice")
	assert.Contains(t, text, "p-2")
	assert.Contains(t, text, session.FormatPrice(decimal.RequireFromString("25.00")))
	assert.Contains(t, text, snap.FormattedTotal())
}

func TestPrintCart_EmptyAndFailed(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printCart(&out, session.Snapshot{}))
	assert.Equal(t, "Your cart is empty\n", out.String())

	err := printCart(&out, session.Snapshot{Error: "HTTP Error! Status: 500"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP Error! Status: 500")
}

func TestCartCommandsRequireToken(t *testing.T) {
	t.Setenv("CARTCTL_TOKEN", "")
	t.Setenv("CARTCTL_API_URL", "http://127.0.0.1:1")

	for _, args := range [][]string{
		{"cart", "show"},
		{"cart", "add", "p-1"},
		{"cart", "remove", "item-1"},
		{"cart", "clear"},
		{"cart", "refresh-prices"},
	} {
		cmd := newRootCommand()
		cmd.SetArgs(args)
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})

		err := cmd.Execute()
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "no token", args)
	}
}

func TestSetRejectsNonNumericQuantity(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"cart", "set", "item-1", "two"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid quantity "two"`)
}
