package repository

// Page is one page of a paginated query together with the total number of
// matches at the time of the query. Concurrent writes between page fetches
// can shift results.
type Page[D any] struct {
	Items       []D   `json:"items"`
	Total       int64 `json:"total"`
	HasNextPage bool  `json:"has_next_page"`
	Skip        int64 `json:"skip"`
	Limit       int64 `json:"limit"`
}

// NextSkip is the skip value for the following page.
func (p *Page[D]) NextSkip() int64 {
	return p.Skip + int64(len(p.Items))
}
