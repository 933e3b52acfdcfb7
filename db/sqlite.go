package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stockcast/market"
)

var database *sql.DB

var errNotInitialized = errors.New("database not initialized")

// InitDB initializes the SQLite database
func InitDB(path string) error {
	var err error
	database, err = sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS prices (
        id INTEGER PRIMARY KEY,
        symbol VARCHAR(20) NOT NULL,
        date TEXT NOT NULL,
        close REAL NOT NULL,
        UNIQUE(symbol, date)
    );
    `

	_, err = database.Exec(query)
	return err
}

func Close() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

// SavePrices upserts every point of the series in one transaction.
func SavePrices(series *market.Series) error {
	if database == nil {
		return errNotInitialized
	}
	if series.Symbol == "" {
		return errors.New("symbol required")
	}

	tx, err := database.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
        INSERT OR REPLACE INTO prices (symbol, date, close)
        VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, p := range series.Points {
		if _, err := stmt.Exec(series.Symbol, p.Date.Format(market.DateLayout), p.Close); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// QueryPrices returns the stored series for symbol, oldest first.
func QueryPrices(ctx context.Context, symbol string) (*market.Series, error) {
	if database == nil {
		return nil, errNotInitialized
	}
	rows, err := database.QueryContext(ctx, `
        SELECT date, close
        FROM prices
        WHERE symbol = ?
        ORDER BY date ASC`, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	series := &market.Series{Symbol: symbol}
	for rows.Next() {
		var day string
		var p market.PricePoint
		if err := rows.Scan(&day, &p.Close); err != nil {
			return nil, err
		}
		p.Date, err = time.Parse(market.DateLayout, day)
		if err != nil {
			return nil, fmt.Errorf("invalid stored date %q: %w", day, err)
		}
		series.Points = append(series.Points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return series, nil
}

// PriceSource serves the history of one symbol from the database.
type PriceSource struct {
	Symbol string
}

func (s *PriceSource) Load(ctx context.Context) (*market.Series, error) {
	series, err := QueryPrices(ctx, s.Symbol)
	if err != nil {
		return nil, fmt.Errorf("query prices for %s: %w", s.Symbol, err)
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("prices for %s: %w", s.Symbol, err)
	}
	return series, nil
}
