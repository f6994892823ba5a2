// Package main provides the entry point for the backtest CLI tool.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/tick-replay/internal/backtest"
	"github.com/yourusername/tick-replay/internal/cache"
	"github.com/yourusername/tick-replay/internal/config"
	"github.com/yourusername/tick-replay/internal/database"
	"github.com/yourusername/tick-replay/internal/logger"
	"github.com/yourusername/tick-replay/internal/repository"
	"github.com/yourusername/tick-replay/internal/service"
)

func main() {
	var (
		configPath   = flag.String("config", "config/config.yaml", "Path to config file")
		symbol       = flag.String("symbol", "", "Symbol to replay (default from config)")
		count        = flag.Int("count", 0, "Number of records to replay (default from config)")
		strategyID   = flag.String("strategy", "", "Strategy id: sma, rsi (default from config)")
		params       = flag.String("params", "", "Strategy parameters as k=v,k=v")
		capital      = flag.String("capital", "", "Initial capital (default from config)")
		commission   = flag.String("commission", "", "Commission rate (default from config)")
		outputPath   = flag.String("output", "", "Write full result JSON to this path")
		equityCSV    = flag.String("equity-csv", "", "Write the equity curve CSV to this path")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	log := logger.NewLogger(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		log.Fatalf("Failed to build repositories: %v", err)
	}

	var remote cache.RemoteStore
	if cfg.Cache.RemoteEnabled() {
		store := cache.NewRedisStore(cfg.Cache.RemoteAddress, cfg.Cache.RemotePassword, cfg.Cache.RemoteDB)
		defer store.Close()
		remote = store
	}
	tiered, err := cache.NewTiered(cfg.Cache.LocalMaxEntries, remote, cfg.Cache.RemoteTTL(), log)
	if err != nil {
		log.Fatalf("Failed to build cache: %v", err)
	}

	data := service.NewMarketDataService(repos.Tick, tiered, log)
	svc, err := service.NewBacktestService(data, log)
	if err != nil {
		log.Fatalf("Failed to build service: %v", err)
	}

	runCfg, err := buildRunConfig(cfg, *symbol, *count, *strategyID, *params, *capital, *commission)
	if err != nil {
		log.Fatalf("Invalid run configuration: %v", err)
	}

	log.WithFields(logrus.Fields{
		"symbol":   runCfg.Symbol,
		"strategy": runCfg.StrategyID,
		"count":    runCfg.DataCount,
	}).Info("Starting backtest")

	result, err := svc.Run(ctx, runCfg)
	if err != nil {
		log.Fatalf("Backtest failed: %v", err)
	}

	printSummary(result)
	writeArtifacts(log, result, *outputPath, *equityCSV)
}

func buildRunConfig(cfg *config.Config, symbol string, count int, strategyID, params, capital, commission string) (backtest.Config, error) {
	if symbol == "" {
		symbol = cfg.Backtest.DefaultSymbol
	}
	if count == 0 {
		count = cfg.Backtest.DefaultCount
	}
	if strategyID == "" {
		strategyID = cfg.Backtest.DefaultStrategy
	}
	if capital == "" {
		capital = cfg.Backtest.InitialCapital
	}
	if commission == "" {
		commission = cfg.Backtest.CommissionRate
	}

	parsedCapital, err := decimal.NewFromString(capital)
	if err != nil {
		return backtest.Config{}, fmt.Errorf("invalid capital %q: %w", capital, err)
	}
	parsedCommission, err := decimal.NewFromString(commission)
	if err != nil {
		return backtest.Config{}, fmt.Errorf("invalid commission %q: %w", commission, err)
	}
	strategyParams, err := parseParams(params)
	if err != nil {
		return backtest.Config{}, err
	}

	return backtest.Config{
		Symbol:         symbol,
		DataCount:      count,
		StrategyID:     strategyID,
		StrategyParams: strategyParams,
		InitialCapital: parsedCapital,
		CommissionRate: parsedCommission,
		RiskFreeRate:   cfg.Backtest.RiskFreeRate,
	}, nil
}

func parseParams(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}
	params := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("malformed strategy parameter %q", pair)
		}
		params[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return params, nil
}

func printSummary(result *backtest.Result) {
	fmt.Printf("Run %s: %s on %s\n", result.RunID, result.StrategyName, result.Symbol)
	if result.UsedBars {
		fmt.Printf("Replayed %d bars (%s)\n", result.RecordsReplayed, result.Timeframe)
	} else {
		fmt.Printf("Replayed %d ticks\n", result.RecordsReplayed)
	}
	fmt.Printf("Initial capital:  %s\n", result.InitialCapital)
	fmt.Printf("Final value:      %s\n", result.FinalValue)
	fmt.Printf("Total return:     %.4f%%\n", result.Metrics.TotalReturn*100)
	fmt.Printf("Max drawdown:     %.4f%%\n", result.Metrics.MaxDrawdown*100)
	fmt.Printf("Sharpe ratio:     %.4f\n", result.Metrics.SharpeRatio)
	fmt.Printf("Trades:           %d (%d winning, %d losing)\n",
		result.Metrics.TotalTrades, result.Metrics.WinningTrades, result.Metrics.LosingTrades)
	fmt.Printf("Total commission: %s\n", result.Metrics.TotalCommission)
	fmt.Printf("Total PnL:        %s\n", result.Metrics.TotalPnL)
}

func writeArtifacts(log *logrus.Logger, result *backtest.Result, outputPath, equityCSV string) {
	if outputPath != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatalf("Failed to serialize result: %v", err)
		}
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			log.Fatalf("Failed to write result: %v", err)
		}
		log.WithField("path", outputPath).Info("Result written")
	}
	if equityCSV != "" {
		if err := os.WriteFile(equityCSV, result.EquityCurve.ToCSV(), 0o644); err != nil {
			log.Fatalf("Failed to write equity curve: %v", err)
		}
		log.WithField("path", equityCSV).Info("Equity curve written")
	}
}
