package repository

import (
	"context"
	"time"

	"portacct/types"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const assetColumns = `symbol, name, type, currency, exchange, valid_from, valid_until`

// pgQueries is the pgx-backed source behind Store.
type pgQueries struct {
	pool *pgxpool.Pool
}

func (q *pgQueries) AssetBySymbol(ctx context.Context, symbol string) (types.Asset, error) {
	row := q.pool.QueryRow(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE symbol = $1`,
		symbol,
	)
	var asset types.Asset
	err := row.Scan(&asset.Symbol, &asset.Name, &asset.Type, &asset.Currency, &asset.Exchange, &asset.ValidFrom, &asset.ValidUntil)
	return asset, err
}

func (q *pgQueries) Assets(ctx context.Context) ([]types.Asset, error) {
	rows, err := q.pool.Query(ctx,
		`SELECT `+assetColumns+` FROM assets ORDER BY symbol`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []types.Asset
	for rows.Next() {
		var asset types.Asset
		if err := rows.Scan(&asset.Symbol, &asset.Name, &asset.Type, &asset.Currency, &asset.Exchange, &asset.ValidFrom, &asset.ValidUntil); err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

func (q *pgQueries) LatestPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, time.Time, error) {
	rows, err := q.pool.Query(ctx,
		`SELECT DISTINCT ON (symbol) symbol, price, time
		 FROM prices
		 WHERE symbol = ANY($1)
		 ORDER BY symbol, time DESC`,
		symbols,
	)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rows.Close()

	prices := make(map[string]decimal.Decimal)
	var newest time.Time
	for rows.Next() {
		var symbol string
		var price decimal.Decimal
		var at time.Time
		if err := rows.Scan(&symbol, &price, &at); err != nil {
			return nil, time.Time{}, err
		}
		prices[symbol] = price
		if at.After(newest) {
			newest = at
		}
	}
	return prices, newest, rows.Err()
}
