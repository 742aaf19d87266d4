package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestParseMoneyToCents(t *testing.T) {
	t.Run("nil is absent, not invalid", func(t *testing.T) {
		got := ParseMoneyToCents(nil)
		assert.True(t, got.Valid)
		assert.Equal(t, int64(0), got.Cents)
	})

	t.Run("empty string is absent", func(t *testing.T) {
		got := ParseMoneyToCents(strPtr(""))
		assert.True(t, got.Valid)
		assert.Equal(t, int64(0), got.Cents)
	})

	t.Run("plain decimal", func(t *testing.T) {
		got := ParseMoneyToCents(strPtr("10.10"))
		assert.True(t, got.Valid)
		assert.Equal(t, int64(1010), got.Cents)
	})

	t.Run("integer value", func(t *testing.T) {
		got := ParseMoneyToCents(strPtr("50"))
		assert.True(t, got.Valid)
		assert.Equal(t, int64(5000), got.Cents)
	})

	t.Run("negative value parses", func(t *testing.T) {
		got := ParseMoneyToCents(strPtr("-2.50"))
		assert.True(t, got.Valid)
		assert.Equal(t, int64(-250), got.Cents)
	})

	t.Run("sub-cent precision rounds half up", func(t *testing.T) {
		got := ParseMoneyToCents(strPtr("0.105"))
		assert.True(t, got.Valid)
		assert.Equal(t, int64(11), got.Cents)
	})

	t.Run("NaN is invalid", func(t *testing.T) {
		got := ParseMoneyToCents(strPtr("NaN"))
		assert.False(t, got.Valid)
		assert.Equal(t, int64(0), got.Cents)
	})

	t.Run("Infinity is invalid", func(t *testing.T) {
		got := ParseMoneyToCents(strPtr("Infinity"))
		assert.False(t, got.Valid)
		assert.Equal(t, int64(0), got.Cents)

		got = ParseMoneyToCents(strPtr("-Infinity"))
		assert.False(t, got.Valid)
		assert.Equal(t, int64(0), got.Cents)
	})

	t.Run("free text is invalid", func(t *testing.T) {
		got := ParseMoneyToCents(strPtr("not-a-number"))
		assert.False(t, got.Valid)
		assert.Equal(t, int64(0), got.Cents)
	})

	t.Run("large value keeps exact cents", func(t *testing.T) {
		got := ParseMoneyToCents(strPtr("999999.99"))
		assert.True(t, got.Valid)
		assert.Equal(t, int64(99999999), got.Cents)
	})
}

func TestCentsToDollars(t *testing.T) {
	assert.Equal(t, 10.18, CentsToDollars(1018))
	assert.Equal(t, 0.6, CentsToDollars(60))
	assert.Equal(t, float64(1000000), CentsToDollars(100000000))
	assert.Equal(t, -2.0, CentsToDollars(-200))
}
