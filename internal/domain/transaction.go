package domain

import (
	"sort"
	"time"
)

// DetailTimeLayout is the fixed-precision layout used when transactions are
// rendered in query responses.
const DetailTimeLayout = "2006-01-02 15:04:05"

// TransactionRecord is one parsed row of a customer's source file. The
// static customer fields are carried on every row, but only the first
// record of a sequence is consulted for them.
type TransactionRecord struct {
	CustomerID     string
	CreditLimit    float64
	AcqCountry     string
	Timestamp      time.Time
	AvailableMoney float64
	Amount         float64
}

type TransactionDetail struct {
	TransactionDateTime string  `json:"transactionDateTime"`
	AvailableMoney      float64 `json:"availableMoney"`
	TransactionAmount   float64 `json:"transactionAmount"`
}

func (r TransactionRecord) Detail() TransactionDetail {
	return TransactionDetail{
		TransactionDateTime: r.Timestamp.UTC().Format(DetailTimeLayout),
		AvailableMoney:      r.AvailableMoney,
		TransactionAmount:   r.Amount,
	}
}

// SortedDetails renders records ordered by timestamp ascending. Records with
// equal timestamps keep their source order.
func SortedDetails(records []TransactionRecord) []TransactionDetail {
	sorted := make([]TransactionRecord, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	details := make([]TransactionDetail, 0, len(sorted))
	for _, r := range sorted {
		details = append(details, r.Detail())
	}
	return details
}
