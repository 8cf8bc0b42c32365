package domain

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"
)

type CustomerSummary struct {
	CustomerID         string  `json:"customerId"`
	SourceID           string  `json:"sourceId"`
	CreditLimit        float64 `json:"creditLimit"`
	AcqCountry         string  `json:"acqCountry"`
	TxnCount           int     `json:"txnCount"`
	ActivityWindowDays int     `json:"daysWindow"`
	TotalSpend         float64 `json:"totalSpend"`
}

type CustomerDetail struct {
	CustomerSummary
	Transactions []TransactionDetail `json:"transactions"`
}

// CustomerIndex is one complete, immutable snapshot of all summaries.
type CustomerIndex struct {
	Summaries   []CustomerSummary
	BuiltAt     time.Time
	Fingerprint string
}

func (idx *CustomerIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.Summaries)
}

// SortSummaries orders summaries by customer id, then source id.
func SortSummaries(summaries []CustomerSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].CustomerID != summaries[j].CustomerID {
			return summaries[i].CustomerID < summaries[j].CustomerID
		}
		return summaries[i].SourceID < summaries[j].SourceID
	})
}

// EncodeSummaries produces the canonical, human-readable encoding of an
// index. Identical input always yields identical bytes.
func EncodeSummaries(summaries []CustomerSummary) ([]byte, error) {
	if summaries == nil {
		summaries = []CustomerSummary{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summaries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeSummaries(data []byte) ([]CustomerSummary, error) {
	var summaries []CustomerSummary
	if err := json.Unmarshal(data, &summaries); err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []CustomerSummary{}
	}
	return summaries, nil
}
