package domain

const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

// QueryFilter holds the optional lower bounds of a customer query. A nil
// field imposes no constraint; zero is a real bound.
type QueryFilter struct {
	MinTxnCount           *int     `json:"minTransactions,omitempty"`
	MinActivityWindowDays *int     `json:"minDaysWindow,omitempty"`
	MinTotalSpend         *float64 `json:"minTotalSpend,omitempty"`
}

type QueryRequest struct {
	Filter   QueryFilter
	Page     int
	PageSize int
}

func NewQueryRequest() QueryRequest {
	return QueryRequest{
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
	}
}

func (q QueryRequest) WithMinTxnCount(n int) QueryRequest {
	q.Filter.MinTxnCount = &n
	return q
}

func (q QueryRequest) WithMinActivityWindowDays(days int) QueryRequest {
	q.Filter.MinActivityWindowDays = &days
	return q
}

func (q QueryRequest) WithMinTotalSpend(spend float64) QueryRequest {
	q.Filter.MinTotalSpend = &spend
	return q
}

func (q QueryRequest) WithPage(page, pageSize int) QueryRequest {
	q.Page = page
	q.PageSize = pageSize
	return q
}

type Page struct {
	Data       []CustomerDetail `json:"data"`
	TotalPages int              `json:"totalPages"`

	// Fingerprint identifies the index snapshot the page was cut from.
	Fingerprint string `json:"-"`
}
