package scraper

import "provider-scraper/models"

// Aggregator accumulates profile records in visitation order
type Aggregator struct {
	records models.AggregateResult
}

// NewAggregator creates an empty Aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{records: models.AggregateResult{}}
}

// Append adds a record; duplicates by profile link are kept
func (a *Aggregator) Append(record models.ProfileRecord) {
	a.records = append(a.records, record)
}

// Len returns the number of records appended so far
func (a *Aggregator) Len() int {
	return len(a.records)
}

// Drain returns every record in insertion order and empties the aggregator
func (a *Aggregator) Drain() models.AggregateResult {
	result := a.records
	a.records = models.AggregateResult{}
	return result
}
