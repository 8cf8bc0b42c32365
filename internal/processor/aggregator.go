package processor

import (
	"customer_index/internal/domain"
	"time"

	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// Summarize reduces one source's records to its summary. It reports false
// for an empty sequence, which produces no summary at all.
func Summarize(sourceID string, records []domain.TransactionRecord) (domain.CustomerSummary, bool) {
	if len(records) == 0 {
		return domain.CustomerSummary{}, false
	}

	first := records[0]
	earliest, latest := first.Timestamp, first.Timestamp
	spend := decimal.Zero

	for _, r := range records {
		if r.Timestamp.Before(earliest) {
			earliest = r.Timestamp
		}
		if r.Timestamp.After(latest) {
			latest = r.Timestamp
		}
		if r.Amount > 0 {
			spend = spend.Add(decimal.NewFromFloat(r.Amount))
		}
	}

	return domain.CustomerSummary{
		CustomerID:         first.CustomerID,
		SourceID:           sourceID,
		CreditLimit:        first.CreditLimit,
		AcqCountry:         first.AcqCountry,
		TxnCount:           len(records),
		ActivityWindowDays: int(latest.Sub(earliest) / day),
		TotalSpend:         spend.InexactFloat64(),
	}, true
}
