package ledger

import (
	"sort"
	"time"

	"portacct/types"
)

// Universe is the externally supplied set of tradable assets. It can carry a
// reference timestamp; filter helpers then restrict to assets valid at that
// instant.
type Universe struct {
	assets map[string]types.Asset
	asOf   *time.Time
}

func NewUniverse(assets ...types.Asset) *Universe {
	u := &Universe{assets: make(map[string]types.Asset, len(assets))}
	for _, asset := range assets {
		u.assets[asset.Symbol] = asset
	}
	return u
}

// At returns a copy of the universe pinned to the given reference time.
func (u *Universe) At(t time.Time) *Universe {
	return &Universe{assets: u.assets, asOf: &t}
}

func (u *Universe) Get(symbol string) (types.Asset, bool) {
	asset, ok := u.assets[symbol]
	return asset, ok
}

// Currency looks up the currency the symbol trades in.
func (u *Universe) Currency(symbol string) (string, bool) {
	asset, ok := u.assets[symbol]
	if !ok {
		return "", false
	}
	return asset.Currency, true
}

// IsValidAt reports whether the symbol exists and its validity window covers
// t. Both window bounds are inclusive.
func (u *Universe) IsValidAt(symbol string, t time.Time) bool {
	asset, ok := u.assets[symbol]
	return ok && asset.ValidAt(t)
}

func (u *Universe) ByType(assetType types.AssetType) []types.Asset {
	return u.filter(func(a types.Asset) bool { return a.Type == assetType })
}

func (u *Universe) ByExchange(exchange string) []types.Asset {
	return u.filter(func(a types.Asset) bool { return a.Exchange == exchange })
}

func (u *Universe) ByCurrency(currency string) []types.Asset {
	return u.filter(func(a types.Asset) bool { return a.Currency == currency })
}

func (u *Universe) filter(keep func(types.Asset) bool) []types.Asset {
	var out []types.Asset
	for _, asset := range u.assets {
		if u.asOf != nil && !asset.ValidAt(*u.asOf) {
			continue
		}
		if keep(asset) {
			out = append(out, asset)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
