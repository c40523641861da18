package dataset

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
	// Registers the "sqlite3" database/sql driver.
	_ "github.com/mattn/go-sqlite3"
)

// SQLSource runs a query whose first two columns are the text and the
// category.
type SQLSource struct {
	Driver string
	DSN    string
	Query  string

	db *sql.DB
}

func NewSQLSource(driver, dsn, query string) *SQLSource {
	return &SQLSource{Driver: driver, DSN: dsn, Query: query}
}

// NewSQLSourceDB reads from an already opened database.
func NewSQLSourceDB(db *sql.DB, query string) *SQLSource {
	return &SQLSource{Query: query, db: db}
}

func (s *SQLSource) String() string {
	if s.Driver == "" {
		return "sql query"
	}
	return s.Driver + " query"
}

func (s *SQLSource) Load(ctx context.Context) (*Dataset, error) {
	db := s.db
	if db == nil {
		var err error
		db, err = sql.Open(s.Driver, s.DSN)
		if err != nil {
			return nil, fmt.Errorf("open %s dataset: %w", s.Driver, err)
		}
		defer db.Close()
	}

	rows, err := db.QueryContext(ctx, s.Query)
	if err != nil {
		return nil, fmt.Errorf("query dataset: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query dataset: %w", err)
	}
	if len(cols) < 2 {
		return nil, fmt.Errorf("dataset query must return text and category columns, got %d column(s)", len(cols))
	}

	b := &builder{src: s.String()}
	dest := make([]any, len(cols))
	var text, category sql.NullString
	dest[0], dest[1] = &text, &category
	for i := 2; i < len(cols); i++ {
		dest[i] = new(sql.RawBytes)
	}
	for row := 1; rows.Next(); row++ {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan dataset row %d: %w", row, err)
		}
		b.add(row, text.String, category.String)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dataset rows: %w", err)
	}
	return b.finish()
}
