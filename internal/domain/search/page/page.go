// Package page computes the pagination envelope returned by listings.
package page

// Envelope describes one page of a result set.
type Envelope struct {
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
	Showing int  `json:"showing"`
}

// New computes the envelope for a page of `limit` items out of `total`.
// Showing = min(limit, total - (page-1)*limit) clamped at 0;
// HasNext holds exactly when page*limit < total.
func New(total, pageNum, limit int) Envelope {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}

	showing := total - (pageNum-1)*limit
	if showing > limit {
		showing = limit
	}
	if showing < 0 {
		showing = 0
	}

	return Envelope{
		Total:   total,
		Page:    pageNum,
		Limit:   limit,
		Pages:   pages,
		HasNext: pageNum*limit < total,
		HasPrev: pageNum > 1 && total > 0,
		Showing: showing,
	}
}
