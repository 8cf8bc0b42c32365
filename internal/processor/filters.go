package processor

import (
	"customer_index/internal/domain"
	"fmt"
)

// Condition is one lower-bound constraint on a summary field.
type Condition struct {
	Field string
	Min   float64
}

func (c Condition) String() string {
	return fmt.Sprintf("%s>=%v", c.Field, c.Min)
}

type Predicate func(domain.CustomerSummary) bool

// FilterSet is the conjunction of the conditions present on a query.
type FilterSet struct {
	conditions []Condition
	predicates []Predicate
}

func NewFilterSet(f domain.QueryFilter) *FilterSet {
	fs := &FilterSet{}

	if f.MinTxnCount != nil {
		bound := *f.MinTxnCount
		fs.add(Condition{Field: "txnCount", Min: float64(bound)}, func(s domain.CustomerSummary) bool {
			return s.TxnCount >= bound
		})
	}

	if f.MinActivityWindowDays != nil {
		bound := *f.MinActivityWindowDays
		fs.add(Condition{Field: "daysWindow", Min: float64(bound)}, func(s domain.CustomerSummary) bool {
			return s.ActivityWindowDays >= bound
		})
	}

	if f.MinTotalSpend != nil {
		bound := *f.MinTotalSpend
		fs.add(Condition{Field: "totalSpend", Min: bound}, func(s domain.CustomerSummary) bool {
			return s.TotalSpend >= bound
		})
	}

	return fs
}

func (fs *FilterSet) add(c Condition, p Predicate) {
	fs.conditions = append(fs.conditions, c)
	fs.predicates = append(fs.predicates, p)
}

func (fs *FilterSet) Conditions() []Condition {
	return fs.conditions
}

func (fs *FilterSet) Match(s domain.CustomerSummary) bool {
	for _, p := range fs.predicates {
		if !p(s) {
			return false
		}
	}
	return true
}

// Apply returns the matching summaries in index order.
func (fs *FilterSet) Apply(summaries []domain.CustomerSummary) []domain.CustomerSummary {
	matched := make([]domain.CustomerSummary, 0, len(summaries))
	for _, s := range summaries {
		if fs.Match(s) {
			matched = append(matched, s)
		}
	}
	return matched
}
