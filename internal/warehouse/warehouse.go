package warehouse

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrJamesThe3rd/cobranzas/internal/config"
	"github.com/MrJamesThe3rd/cobranzas/internal/database"
	"github.com/MrJamesThe3rd/cobranzas/internal/tabular"
)

var (
	ErrConnection = errors.New("warehouse connection failed")
	ErrQuery      = errors.New("warehouse query failed")
)

// BaseQueryName labels the bundled query in stage metrics.
const BaseQueryName = "embedded:minutas_base.sql"

//go:embed queries/minutas_base.sql
var baseQuery string

// BaseQuery returns the bundled sales extract.
func BaseQuery() string {
	return baseQuery
}

// Opener acquires a database handle for a connection string.
type Opener func(ctx context.Context, connStr string) (*sql.DB, error)

type Client struct {
	cfg  config.Warehouse
	open Opener
}

func New(cfg config.Warehouse) *Client {
	return &Client{cfg: cfg, open: database.Open}
}

// NewWithOpener is used by tests to inject a fake driver.
func NewWithOpener(cfg config.Warehouse, open Opener) *Client {
	return &Client{cfg: cfg, open: open}
}

// Query opens a connection, runs exactly one read-only query and closes the
// connection on every path. There are no retries.
func (c *Client) Query(ctx context.Context, query string) (*tabular.Table, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}

	connStr, err := c.cfg.ConnectionString()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}

	db, err := c.open(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	defer rows.Close()

	t, err := scanTable(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}

	return t, nil
}

// scanTable reads every row as strings. NULL becomes "".
func scanTable(rows *sql.Rows) (*tabular.Table, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	t := tabular.New(cols, nil)

	values := make([]any, len(cols))
	dest := make([]any, len(cols))

	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning row %d: %w", t.Len()+1, err)
		}

		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = cellString(v)
		}

		t.Append(row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return t, nil
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return tabular.FormatDate(&x)
	default:
		return fmt.Sprint(x)
	}
}
