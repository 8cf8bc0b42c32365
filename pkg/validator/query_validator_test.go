package validator

import (
	"customer_index/internal/domain"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateQuery_Defaults(t *testing.T) {
	err := ValidateQuery(domain.NewQueryRequest())

	assert.NoError(t, err)
}

func TestValidateQuery_ZeroFiltersAreValid(t *testing.T) {
	req := domain.NewQueryRequest().
		WithMinTxnCount(0).
		WithMinActivityWindowDays(0).
		WithMinTotalSpend(0)

	assert.NoError(t, ValidateQuery(req))
}

func TestValidateQuery_Rejects(t *testing.T) {
	tests := []struct {
		name string
		req  domain.QueryRequest
	}{
		{"zero page", domain.NewQueryRequest().WithPage(0, 20)},
		{"negative page", domain.NewQueryRequest().WithPage(-3, 20)},
		{"zero page size", domain.NewQueryRequest().WithPage(1, 0)},
		{"negative page size", domain.NewQueryRequest().WithPage(1, -1)},
		{"nan spend", domain.NewQueryRequest().WithMinTotalSpend(math.NaN())},
		{"infinite spend", domain.NewQueryRequest().WithMinTotalSpend(math.Inf(1))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(tt.req)

			assert.ErrorIs(t, err, ErrInvalidQueryArgument)
		})
	}
}
