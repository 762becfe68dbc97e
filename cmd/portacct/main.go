package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"time"

	"portacct/internal/ledger"
	"portacct/internal/repository"
	"portacct/types"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type config struct {
	DatabaseURL   string `mapstructure:"database_url"`
	Currency      string `mapstructure:"currency"`
	InitialCash   string `mapstructure:"initial_cash"`
	FillsFile     string `mapstructure:"fills_file"`
	CloseStrategy string `mapstructure:"close_strategy"`
}

func main() {
	logger := initLogger()
	defer logger.Sync()

	cfg := loadConfig()
	ctx := context.Background()

	strategy := types.CloseStrategy(cfg.CloseStrategy)
	if strategy != types.CloseFIFO && strategy != types.CloseLIFO {
		logger.Fatal("close_strategy must be FIFO or LIFO", zap.String("got", cfg.CloseStrategy))
	}

	fills, err := loadFills(cfg.FillsFile)
	if err != nil {
		logger.Fatal("load fills", zap.Error(err))
	}

	universe, snapshot, err := loadMarket(ctx, cfg, fills, logger)
	if err != nil {
		logger.Fatal("load market data", zap.Error(err))
	}

	portfolio := ledger.NewPortfolio("replay")
	initialCash := decimal.RequireFromString(cfg.InitialCash)
	if err := portfolio.Deposit(cfg.Currency, initialCash, time.Now()); err != nil {
		logger.Fatal("fund portfolio", zap.Error(err))
	}

	bar := progressbar.Default(int64(len(fills)), "replaying fills")
	batch := ledger.BatchResult{}
	for _, fill := range fills {
		result, err := portfolio.ApplyFill(universe, fill, strategy)
		if err != nil {
			logger.Fatal("apply fill",
				zap.String("symbol", fill.Symbol),
				zap.String("effect", string(fill.Effect)),
				zap.Error(err))
		}
		batch.Fills = append(batch.Fills, result)
		batch.CashFlow = batch.CashFlow.Add(result.CashFlow)
		batch.RealizedPnL = batch.RealizedPnL.Add(result.RealizedPnL)
		bar.Add(1)
	}

	printReport(portfolio, snapshot, batch)
}

func initLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.TimeKey = "time"

	logger, err := config.Build()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	return logger
}

func loadConfig() config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("currency", "USD")
	viper.SetDefault("initial_cash", "100000")
	viper.SetDefault("close_strategy", string(types.CloseFIFO))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("error reading config file: %s", err)
		}
	}

	var cfg config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("unable to decode config: %s", err)
	}
	return cfg
}

// loadMarket builds the universe and price snapshot, from the database when
// one is configured and from the replay fills themselves otherwise (each
// symbol priced at its last fill).
func loadMarket(ctx context.Context, cfg config, fills []types.Fill, logger *zap.Logger) (*ledger.Universe, types.MarketSnapshot, error) {
	if cfg.DatabaseURL != "" {
		store, err := repository.NewStore(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, types.MarketSnapshot{}, err
		}
		defer store.Close()

		assets, err := store.GetUniverse(ctx)
		if err != nil {
			return nil, types.MarketSnapshot{}, err
		}
		symbols := make([]string, 0, len(assets))
		for _, asset := range assets {
			symbols = append(symbols, asset.Symbol)
		}
		snapshot, err := store.GetSnapshot(ctx, symbols)
		if err != nil {
			return nil, types.MarketSnapshot{}, err
		}
		return ledger.NewUniverse(assets...), snapshot, nil
	}

	prices := make(map[string]decimal.Decimal)
	assets := make([]types.Asset, 0)
	seen := make(map[string]bool)
	for _, fill := range fills {
		prices[fill.Symbol] = fill.Price
		if !seen[fill.Symbol] {
			seen[fill.Symbol] = true
			assets = append(assets, types.Asset{
				Symbol:   fill.Symbol,
				Type:     types.AssetTypeStock,
				Currency: cfg.Currency,
			})
		}
	}
	return ledger.NewUniverse(assets...), types.NewMarketSnapshot(time.Now(), prices), nil
}

// loadFills reads a replay script. Columns: symbol, effect, price, quantity,
// commission, created (RFC3339). A missing file name falls back to a small
// built-in demo script.
func loadFills(path string) ([]types.Fill, error) {
	if path == "" {
		return demoFills(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fills file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read fills file: %w", err)
	}

	var fills []types.Fill
	for i, record := range records {
		if i == 0 && record[0] == "symbol" {
			continue
		}
		if len(record) != 6 {
			return nil, fmt.Errorf("row %d: want 6 columns, got %d", i, len(record))
		}
		price, err := decimal.NewFromString(record[2])
		if err != nil {
			return nil, fmt.Errorf("row %d price: %w", i, err)
		}
		quantity, err := decimal.NewFromString(record[3])
		if err != nil {
			return nil, fmt.Errorf("row %d quantity: %w", i, err)
		}
		commission, err := decimal.NewFromString(record[4])
		if err != nil {
			return nil, fmt.Errorf("row %d commission: %w", i, err)
		}
		created, err := time.Parse(time.RFC3339, record[5])
		if err != nil {
			return nil, fmt.Errorf("row %d created: %w", i, err)
		}
		fills = append(fills, types.NewFill(record[0], types.PositionEffect(record[1]), price, quantity, commission, created))
	}
	return fills, nil
}

func demoFills() []types.Fill {
	base := time.Date(2025, time.January, 2, 10, 0, 0, 0, time.UTC)
	d := decimal.RequireFromString
	return []types.Fill{
		types.NewFill("AAPL", types.EffectOpenLong, d("100"), d("10"), d("1"), base),
		types.NewFill("AAPL", types.EffectOpenLong, d("110"), d("10"), d("1"), base.Add(time.Hour)),
		types.NewFill("MSFT", types.EffectOpenShort, d("200"), d("5"), d("1"), base.Add(2*time.Hour)),
		types.NewFill("AAPL", types.EffectCloseLong, d("120"), d("15"), d("1"), base.Add(3*time.Hour)),
		types.NewFill("MSFT", types.EffectCloseShort, d("190"), d("5"), d("1"), base.Add(4*time.Hour)),
	}
}

func printReport(portfolio *ledger.Portfolio, snapshot types.MarketSnapshot, batch ledger.BatchResult) {
	fmt.Println("===== Replay Report =====")
	fmt.Printf("Fills Applied:         %d\n", len(batch.Fills))
	fmt.Printf("Net Cash Flow:         %s\n", batch.CashFlow)
	fmt.Printf("Realized PnL:          %s\n", batch.RealizedPnL)

	values := portfolio.MarketValue(snapshot)
	for currency, position := range portfolio.Positions {
		fmt.Printf("\n-- %s Account --\n", currency)
		fmt.Printf("Cash:                  %s\n", position.CashMoney().Display())
		fmt.Printf("Market Value:          %s\n", values[currency])
		fmt.Printf("Realized PnL:          %s\n", position.RealizedPnL)
		fmt.Printf("Unrealized PnL:        %s\n", position.UnrealizedPnL(snapshot))
		fmt.Printf("Total Commission:      %s\n", position.TotalCommission)

		view := position.View()
		for symbol, holding := range view.Long {
			fmt.Printf("Long  %-8s qty %s avg %s (%d lots)\n", symbol, holding.Quantity, holding.AverageBasis.StringFixed(4), holding.Lots)
		}
		for symbol, holding := range view.Short {
			fmt.Printf("Short %-8s qty %s avg %s (%d lots)\n", symbol, holding.Quantity, holding.AverageBasis.StringFixed(4), holding.Lots)
		}
	}
}
