package api

import (
	"customer_index/internal/domain"
	"customer_index/pkg/validator"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQueryRequest_Defaults(t *testing.T) {
	req, err := ParseQueryRequest(url.Values{})

	require.NoError(t, err)
	assert.Equal(t, domain.NewQueryRequest(), req)
}

func TestParseQueryRequest_AllParams(t *testing.T) {
	values, _ := url.ParseQuery("minTransactions=3&minDaysWindow=0&minTotalSpend=12.5&page=2&pageSize=5")

	req, err := ParseQueryRequest(values)

	require.NoError(t, err)
	assert.Equal(t, domain.NewQueryRequest().
		WithMinTxnCount(3).
		WithMinActivityWindowDays(0).
		WithMinTotalSpend(12.5).
		WithPage(2, 5), req)
}

func TestParseQueryRequest_EmptyParamIsAbsent(t *testing.T) {
	values, _ := url.ParseQuery("minTransactions=&minTotalSpend=")

	req, err := ParseQueryRequest(values)

	require.NoError(t, err)
	assert.Nil(t, req.Filter.MinTxnCount)
	assert.Nil(t, req.Filter.MinTotalSpend)
}

func TestParseQueryRequest_Malformed(t *testing.T) {
	for _, raw := range []string{
		"minTransactions=abc",
		"minDaysWindow=1.5",
		"minTotalSpend=lots",
		"page=first",
		"pageSize=x",
	} {
		t.Run(raw, func(t *testing.T) {
			values, _ := url.ParseQuery(raw)

			_, err := ParseQueryRequest(values)

			assert.ErrorIs(t, err, validator.ErrInvalidQueryArgument)
		})
	}
}

func TestParseQueryRequest_LeavesRangeChecksToValidator(t *testing.T) {
	values, _ := url.ParseQuery("page=0&pageSize=-1")

	req, err := ParseQueryRequest(values)

	require.NoError(t, err)
	assert.Equal(t, 0, req.Page)
	assert.Equal(t, -1, req.PageSize)
}
