// Package domain contains core business types and interfaces.
//
// This file defines the Offer type returned by marketplace clients and
// the ordering and savings rules applied to a merged result set.
package domain

import "sort"

// Offer is a single marketplace listing, or a search-link placeholder
// pointing at a marketplace's own results page.
type Offer struct {
	Source       string  `json:"source"`
	Price        float64 `json:"price"` // 0 signals "no price, follow link instead"
	Title        string  `json:"title"`
	Condition    string  `json:"condition"`
	URL          string  `json:"url"`
	Shipping     string  `json:"shipping,omitempty"`
	Image        string  `json:"image,omitempty"`
	IsSearchLink bool    `json:"is_search_link,omitempty"`
}

// Priced reports whether the offer carries a concrete price.
func (o Offer) Priced() bool {
	return o.Price > 0
}

// SortOffers orders a merged result set for presentation: priced offers
// ascending by price (stable, so ties keep their relative source
// order), followed by all search-link offers in input order. Offers
// that are neither priced nor flagged as search links are dropped.
func SortOffers(offers []Offer) []Offer {
	priced := make([]Offer, 0, len(offers))
	links := make([]Offer, 0, 1)
	for _, o := range offers {
		switch {
		case o.Priced():
			priced = append(priced, o)
		case o.IsSearchLink:
			links = append(links, o)
		}
	}

	sort.SliceStable(priced, func(i, j int) bool {
		return priced[i].Price < priced[j].Price
	})

	return append(priced, links...)
}

// Savings returns the spread between the most and least expensive
// priced offers. With one priced offer max equals min, so the result is
// 0; with none it is 0 outright.
func Savings(offers []Offer) float64 {
	var minPrice, maxPrice float64
	seen := false
	for _, o := range offers {
		if !o.Priced() {
			continue
		}
		if !seen {
			minPrice, maxPrice = o.Price, o.Price
			seen = true
			continue
		}
		if o.Price < minPrice {
			minPrice = o.Price
		}
		if o.Price > maxPrice {
			maxPrice = o.Price
		}
	}
	if !seen {
		return 0
	}
	return maxPrice - minPrice
}

// BestOffer returns the cheapest priced offer in an already-sorted
// result set, or false when the set has no priced offers. Used to fill
// the saved-search history record.
func BestOffer(sorted []Offer) (Offer, bool) {
	for _, o := range sorted {
		if o.Priced() {
			return o, true
		}
	}
	return Offer{}, false
}
