package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portacct/types"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Global error declarations.
var (
	ErrAssetNotFound = errors.New("not found in datasource")
	ErrNoPrices      = errors.New("no prices found in datasource")
)

type assetsSource interface {
	AssetBySymbol(ctx context.Context, symbol string) (types.Asset, error)
	Assets(ctx context.Context) ([]types.Asset, error)
}

type pricesSource interface {
	LatestPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, time.Time, error)
}

// Store reads asset reference data and price snapshots for the accounting
// core. It is strictly read-only: position state is never persisted here.
type Store struct {
	assets assetsSource
	prices pricesSource
	pool   *pgxpool.Pool
	log    *zap.Logger
}

// NewStore connects to the database and verifies connectivity. Decimal
// columns are scanned straight into shopspring decimals.
func NewStore(ctx context.Context, dbURL string, log *zap.Logger) (*Store, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	// Ensure the connection is established.
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	queries := &pgQueries{pool: pool}
	return &Store{
		assets: queries,
		prices: queries,
		pool:   pool,
		log:    log,
	}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// GetAssetBySymbol retrieves a types.Asset by its symbol.
func (s *Store) GetAssetBySymbol(ctx context.Context, symbol string) (*types.Asset, error) {
	asset, err := s.assets.AssetBySymbol(ctx, symbol)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("symbol %s %w", symbol, ErrAssetNotFound)
		}
		return nil, err
	}
	return &asset, nil
}

// GetUniverse loads every known asset.
func (s *Store) GetUniverse(ctx context.Context) ([]types.Asset, error) {
	assets, err := s.assets.Assets(ctx)
	if err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return nil, ErrAssetNotFound
	}
	s.log.Info("loaded universe", zap.Int("assets", len(assets)))
	return assets, nil
}

// GetSnapshot builds a market snapshot from the latest stored price per
// symbol. The snapshot time is the newest price time seen.
func (s *Store) GetSnapshot(ctx context.Context, symbols []string) (types.MarketSnapshot, error) {
	prices, at, err := s.prices.LatestPrices(ctx, symbols)
	if err != nil {
		return types.MarketSnapshot{}, err
	}
	if len(prices) == 0 {
		return types.MarketSnapshot{}, ErrNoPrices
	}
	s.log.Info("loaded price snapshot", zap.Int("symbols", len(prices)), zap.Time("at", at))
	return types.NewMarketSnapshot(at, prices), nil
}
