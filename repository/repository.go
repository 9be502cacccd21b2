// Package repository is the source of truth behind dictcache: dictionary
// lookups and validity-interval queries over PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/unkn0wn-root/dictcache"
)

const (
	defaultDateFromColumn = "tech_date_from"
	defaultDateToColumn   = "tech_date_to"
	defaultDateFormat     = "YYYY-MM-DD"
)

// Options tune the interval query. Zero values select the defaults.
type Options struct {
	DateFromColumn string // default tech_date_from
	DateToColumn   string // default tech_date_to
	DateFormat     string // to_char template; default YYYY-MM-DD
	Logger         dictcache.Logger
}

// Repository implements dictcache.Source.
type Repository struct {
	db       *sqlx.DB
	dateFrom string
	dateTo   string
	format   string
	log      dictcache.Logger
}

var _ dictcache.Source = (*Repository)(nil)

// New creates a repository over db.
func New(db *sqlx.DB, opts Options) *Repository {
	r := &Repository{
		db:       db,
		dateFrom: opts.DateFromColumn,
		dateTo:   opts.DateToColumn,
		format:   opts.DateFormat,
		log:      opts.Logger,
	}
	if r.dateFrom == "" {
		r.dateFrom = defaultDateFromColumn
	}
	if r.dateTo == "" {
		r.dateTo = defaultDateToColumn
	}
	if r.format == "" {
		r.format = defaultDateFormat
	}
	if r.log == nil {
		r.log = dictcache.NopLogger{}
	}
	return r
}

// ConvertByDictionary returns toColumn of the first row where fromColumn = value.
// asOf is not applied; dictionary rows are looked up by key alone.
func (r *Repository) ConvertByDictionary(ctx context.Context, table, fromColumn, toColumn, value string, _ time.Time) (string, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 LIMIT 1",
		quote(toColumn), quote(table), quote(fromColumn))

	var result sql.NullString
	if err := r.db.GetContext(ctx, &result, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("no row where %s = %q", fromColumn, value)
		}
		r.log.Error("dictionary query failed", dictcache.Fields{"query": query, "err": err})
		return "", &dictcache.QueryError{Table: table, Column: toColumn, Query: query, Err: err}
	}
	r.log.Debug("dictionary query result", dictcache.Fields{"query": query, "result": result.String})
	return result.String, nil
}

type intervalRow struct {
	From sql.NullString `db:"date_from"`
	To   sql.NullString `db:"date_to"`
}

// DateListByFilters returns the validity interval of every row of table whose
// columns equal all filters. NULL dates are returned as "".
func (r *Repository) DateListByFilters(ctx context.Context, table string, filters dictcache.Filters) ([]dictcache.Interval, error) {
	if len(filters) == 0 {
		return nil, fmt.Errorf("%w for table %q", dictcache.ErrEmptyFilterSet, table)
	}
	query, args := r.intervalQuery(table, filters)

	var rows []intervalRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.Error("interval query failed", dictcache.Fields{"query": query, "err": err})
		return nil, &dictcache.QueryError{Table: table, Query: query, Err: err}
	}

	out := make([]dictcache.Interval, 0, len(rows))
	for _, row := range rows {
		out = append(out, dictcache.Interval{ValidFrom: row.From.String, ValidTo: row.To.String})
	}
	r.log.Debug("interval query result", dictcache.Fields{"query": query, "count": len(out)})
	return out, nil
}

// intervalQuery builds the AND-ed equality filter. Columns are sorted so the
// statement text is stable for a given filter set.
func (r *Repository) intervalQuery(table string, filters dictcache.Filters) (string, []any) {
	cols := make([]string, 0, len(filters))
	for col := range filters {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	conds := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		conds[i] = fmt.Sprintf("%s = $%d", quote(col), i+1)
		args[i] = filters[col]
	}

	format := pq.QuoteLiteral(r.format)
	query := fmt.Sprintf("SELECT to_char(%s, %s) AS date_from, to_char(%s, %s) AS date_to FROM %s WHERE %s",
		quote(r.dateFrom), format, quote(r.dateTo), format, quote(table), strings.Join(conds, " AND "))
	return query, args
}

// quote quotes an identifier, keeping schema qualification: a.b -> "a"."b".
func quote(ident string) string {
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}
