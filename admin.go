package chorus

import (
	"context"
	"fmt"

	"github.com/arloliu/chorus/literal"
)

const (
	pingQuery        = "SELECT 1 as ping"
	processlistQuery = "SHOW PROCESSLIST"
	databasesQuery   = "show databases"
	tablesQuery      = "SHOW TABLES"

	databaseSizeQuery = "SELECT database,formatReadableSize(sum(bytes)) as size " +
		"FROM system.parts WHERE active AND database=:database GROUP BY database"

	tablesSizeQuery = "SELECT table, formatReadableSize(sum(bytes)) as size, " +
		"min(min_date) as min_date, max(max_date) as max_date " +
		"FROM system.parts WHERE active GROUP BY table"
)

// Ping reports whether the active host answers a trivial query.
func (c *Client) Ping(ctx context.Context) error {
	rows, err := c.Select(ctx, pingQuery, nil)
	if err != nil {
		return err
	}

	row, ok := rows.FetchOne()
	if !ok || fmt.Sprint(row["ping"]) != "1" {
		return fmt.Errorf("unexpected ping result: %v", row)
	}

	return nil
}

// ShowProcesslist returns the queries currently running on the active host.
func (c *Client) ShowProcesslist(ctx context.Context) (RowSet, error) {
	return c.Select(ctx, processlistQuery, nil)
}

// ShowDatabases returns the databases of the active host.
func (c *Client) ShowDatabases(ctx context.Context) (RowSet, error) {
	return c.Select(ctx, databasesQuery, nil)
}

// ShowTables returns the tables of the selected database.
func (c *Client) ShowTables(ctx context.Context) (RowSet, error) {
	return c.Select(ctx, tablesQuery, nil)
}

// DatabaseSize returns the on-disk size of the selected database.
//
// Returns:
//   - Row: Columns database and size (human readable), or nil if the database has no parts
//   - error: Error if the query failed
func (c *Client) DatabaseSize(ctx context.Context) (Row, error) {
	rows, err := c.Select(ctx, databaseSizeQuery, literal.Bindings{
		"database": literal.String(c.Database()),
	})
	if err != nil {
		return nil, err
	}

	row, _ := rows.FetchOne()

	return row, nil
}

// TablesSize returns the size and date range of every table, keyed by table name.
func (c *Client) TablesSize(ctx context.Context) (map[string]Row, error) {
	rows, err := c.Select(ctx, tablesSizeQuery, nil)
	if err != nil {
		return nil, err
	}

	return rows.RowsAsTree("table"), nil
}

// TableSize returns the size row of one table.
//
// Returns:
//   - Row: Columns table, size, min_date and max_date
//   - bool: false if the table has no active parts
//   - error: Error if the query failed
func (c *Client) TableSize(ctx context.Context, table string) (Row, bool, error) {
	tables, err := c.TablesSize(ctx)
	if err != nil {
		return nil, false, err
	}

	row, ok := tables[table]

	return row, ok, nil
}
