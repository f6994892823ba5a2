package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SymbolSummary describes stored coverage for one symbol.
type SymbolSummary struct {
	Symbol       string           `json:"symbol"`
	RecordCount  int64            `json:"record_count"`
	EarliestTime *time.Time       `json:"earliest_time,omitempty"`
	LatestTime   *time.Time       `json:"latest_time,omitempty"`
	MinPrice     *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice     *decimal.Decimal `json:"max_price,omitempty"`
}

// DataSummary describes the full persisted data set.
type DataSummary struct {
	TotalRecords int64           `json:"total_records"`
	SymbolCount  int             `json:"symbol_count"`
	EarliestTime *time.Time      `json:"earliest_time,omitempty"`
	LatestTime   *time.Time      `json:"latest_time,omitempty"`
	Symbols      []SymbolSummary `json:"symbols"`
}

// HasSufficientData reports whether a symbol holds at least count records.
func (d DataSummary) HasSufficientData(symbol string, count int64) bool {
	for _, s := range d.Symbols {
		if s.Symbol == symbol {
			return s.RecordCount >= count
		}
	}
	return false
}
