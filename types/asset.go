package types

import (
	"time"
)

type AssetType string

const (
	AssetTypeStock  AssetType = "STOCK"
	AssetTypeCrypto AssetType = "CRYPTO"
	AssetTypeEtf    AssetType = "ETF"
)

// Asset is immutable reference data for a tradable instrument. The validity
// window bounds are optional and inclusive on both ends.
type Asset struct {
	Symbol     string     `json:"symbol"`
	Name       string     `json:"name"`
	Type       AssetType  `json:"type"`
	Currency   string     `json:"currency"`
	Exchange   string     `json:"exchange"`
	ValidFrom  *time.Time `json:"validFrom,omitempty"`
	ValidUntil *time.Time `json:"validUntil,omitempty"`
}

// ValidAt reports whether the asset is tradable at t.
func (a Asset) ValidAt(t time.Time) bool {
	if a.ValidFrom != nil && t.Before(*a.ValidFrom) {
		return false
	}
	if a.ValidUntil != nil && t.After(*a.ValidUntil) {
		return false
	}
	return true
}
