package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"stockcast/db"
	"stockcast/logging"
	"stockcast/market"
)

func main() {
	csvPath := flag.String("csv", "AAPL.csv", "price history CSV")
	dbPath := flag.String("db", "data/prices.db", "sqlite database path")
	symbol := flag.String("symbol", "AAPL", "stock symbol")
	dateColumn := flag.String("date_column", "Date", "date column name")
	closeColumn := flag.String("close_column", "Close", "close column name")
	flag.Parse()

	if *symbol == "" {
		log.Fatal("symbol is required")
	}

	logger, err := logging.New(logging.Config{Level: "info"})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	source := &market.CSVSource{
		Path:        *csvPath,
		Symbol:      *symbol,
		DateColumn:  *dateColumn,
		CloseColumn: *closeColumn,
	}
	series, err := source.Load(context.Background())
	if err != nil {
		logger.Fatal("failed to load csv", zap.Error(err))
	}

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		logger.Fatal("failed to create database dir", zap.Error(err))
	}
	if err := db.InitDB(*dbPath); err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := db.SavePrices(series); err != nil {
		logger.Fatal("failed to save prices", zap.Error(err))
	}

	last := series.Last()
	logger.Info("prices imported",
		zap.String("symbol", series.Symbol),
		zap.Int("rows", series.Len()),
		zap.String("last_date", last.Date.Format(market.DateLayout)))
	fmt.Printf("imported %d rows into %s\n", series.Len(), *dbPath)
}
