package api

import (
	"customer_index/internal/domain"
	"customer_index/pkg/validator"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ParseQueryRequest reads the customer query from URL parameters. Missing
// or empty filter parameters impose no constraint.
func ParseQueryRequest(values url.Values) (domain.QueryRequest, error) {
	req := domain.NewQueryRequest()

	if v, ok, err := intParam(values, "minTransactions"); err != nil {
		return req, err
	} else if ok {
		req = req.WithMinTxnCount(v)
	}

	if v, ok, err := intParam(values, "minDaysWindow"); err != nil {
		return req, err
	} else if ok {
		req = req.WithMinActivityWindowDays(v)
	}

	if raw := strings.TrimSpace(values.Get("minTotalSpend")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, fmt.Errorf("%w: minTotalSpend %q is not a number", validator.ErrInvalidQueryArgument, raw)
		}
		req = req.WithMinTotalSpend(v)
	}

	page, pageSize := req.Page, req.PageSize
	if v, ok, err := intParam(values, "page"); err != nil {
		return req, err
	} else if ok {
		page = v
	}
	if v, ok, err := intParam(values, "pageSize"); err != nil {
		return req, err
	} else if ok {
		pageSize = v
	}

	return req.WithPage(page, pageSize), nil
}

func intParam(values url.Values, name string) (int, bool, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return 0, false, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s %q is not an integer", validator.ErrInvalidQueryArgument, name, raw)
	}
	return v, true, nil
}
