package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatRand(t *testing.T) {
	assert.Equal(t, "R350.00", FormatRand(decimal.NewFromInt(350)))
	assert.Equal(t, "R100.50", FormatRand(decimal.RequireFromString("100.5")))
	assert.Equal(t, "-R12.30", FormatRand(decimal.RequireFromString("-12.3")))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("Thandi Mokoena", "mOKo"))
	assert.False(t, ContainsFold("Thandi", "sipho"))
}
