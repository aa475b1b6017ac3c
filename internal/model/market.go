package model

import (
	"sort"
	"time"
)

// PriceSample is a single observed price for a ticker.
type PriceSample struct {
	Price      float64   `json:"price"`
	ObservedAt time.Time `json:"lastUpdatedAt"`
}

// PriceSeries holds the samples returned for one ticker over one requested window,
// in upstream order.
type PriceSeries []PriceSample

// Prices extracts the price column.
func (s PriceSeries) Prices() []float64 {
	prices := make([]float64, len(s))
	for i, p := range s {
		prices[i] = p.Price
	}
	return prices
}

// Since returns the samples observed strictly after cutoff. The receiver is not modified.
func (s PriceSeries) Since(cutoff time.Time) PriceSeries {
	out := make(PriceSeries, 0, len(s))
	for _, p := range s {
		if p.ObservedAt.After(cutoff) {
			out = append(out, p)
		}
	}
	return out
}

// StockDirectory maps a company display name to its ticker symbol.
type StockDirectory map[string]string

// Contains reports whether ticker is one of the directory's symbols.
func (d StockDirectory) Contains(ticker string) bool {
	for _, t := range d {
		if t == ticker {
			return true
		}
	}
	return false
}

// Tickers returns the directory's symbols in sorted order.
func (d StockDirectory) Tickers() []string {
	out := make([]string, 0, len(d))
	for _, t := range d {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
