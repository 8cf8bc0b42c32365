package validator

import (
	"customer_index/internal/domain"
	"errors"
	"fmt"
	"math"
)

var ErrInvalidQueryArgument = errors.New("invalid query argument")

// ValidateQuery rejects pagination and filter values that cannot describe a
// page. Absent filters are always valid.
func ValidateQuery(req domain.QueryRequest) error {
	var errs []error

	if req.Page <= 0 {
		errs = append(errs, fmt.Errorf("page must be positive, got %d", req.Page))
	}

	if req.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("pageSize must be positive, got %d", req.PageSize))
	}

	if v := req.Filter.MinTotalSpend; v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
		errs = append(errs, fmt.Errorf("minTotalSpend must be finite, got %v", *v))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidQueryArgument, errors.Join(errs...))
	}

	return nil
}
