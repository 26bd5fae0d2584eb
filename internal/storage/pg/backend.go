package pg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DjordjeVuckovic/table-ingest/internal/apperr"
	"github.com/DjordjeVuckovic/table-ingest/internal/domain"
	"github.com/DjordjeVuckovic/table-ingest/internal/schema"
)

const (
	codeDuplicateTable  = "42P07"
	codeDuplicateSchema = "42P06"
	codeUniqueViolation = "23505"
)

// Backend stores tables in PostgreSQL. The dataset of a TableSpec maps to a
// schema and the table to a table inside it. The project is ignored.
type Backend struct {
	pool *ConnectionPool
	db   *pgxpool.Pool
}

func NewBackend(pool *ConnectionPool) *Backend {
	return &Backend{pool: pool, db: pool.GetConn()}
}

func (b *Backend) Name() string {
	return "pg"
}

func ident(t domain.TableSpec) string {
	return pgx.Identifier{t.Dataset(), t.Table()}.Sanitize()
}

func (b *Backend) Exists(ctx context.Context, t domain.TableSpec) (bool, error) {
	var exists bool
	err := b.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2
		)`, t.Dataset(), t.Table()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", t, err)
	}
	return exists, nil
}

func (b *Backend) Create(ctx context.Context, t domain.TableSpec, s *schema.Schema) error {
	_, err := b.db.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{t.Dataset()}.Sanitize())
	if err != nil && !isPgCode(err, codeDuplicateSchema, codeUniqueViolation) {
		return fmt.Errorf("failed to create schema %s: %w", t.Dataset(), err)
	}

	ddl := createTableSQL(t, s)
	slog.Debug("Creating table", "table", t.String(), "ddl", ddl)
	if _, err := b.db.Exec(ctx, ddl); err != nil {
		if isPgCode(err, codeDuplicateTable, codeUniqueViolation) {
			return apperr.ErrTableExists
		}
		return fmt.Errorf("failed to create table %s: %w", t, err)
	}
	return nil
}

func createTableSQL(t domain.TableSpec, s *schema.Schema) string {
	cols := make([]string, 0, s.Len())
	for _, f := range s.Fields() {
		col := pgx.Identifier{f.Name}.Sanitize() + " " + columnType(f.Type)
		if !f.Optional {
			col += " NOT NULL"
		}
		cols = append(cols, col)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", ident(t), strings.Join(cols, ", "))
}

func (b *Backend) Describe(ctx context.Context, t domain.TableSpec) (*schema.Schema, error) {
	rows, err := b.db.Query(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, t.Dataset(), t.Table())
	if err != nil {
		return nil, fmt.Errorf("failed to describe table %s: %w", t, err)
	}
	defer rows.Close()

	var fields []schema.Field
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", t, err)
		}
		fields = append(fields, schema.Field{
			Name:     name,
			Type:     fieldType(dataType),
			Optional: nullable == "YES",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to describe table %s: %w", t, err)
	}
	return schema.Describe(fields), nil
}

func (b *Backend) CountRows(ctx context.Context, t domain.TableSpec) (int64, error) {
	var n int64
	if err := b.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+ident(t)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", t, err)
	}
	return n, nil
}

func (b *Backend) Truncate(ctx context.Context, t domain.TableSpec) error {
	if _, err := b.db.Exec(ctx, "TRUNCATE TABLE "+ident(t)); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", t, err)
	}
	return nil
}

// Insert first tries a single COPY of the whole batch. When the copy fails it
// falls back to one INSERT per row, each inside its own savepoint, so a bad row
// does not take the rest of the batch with it.
func (b *Backend) Insert(ctx context.Context, t domain.TableSpec, columns []schema.Field, rows []domain.ValidatedRecord) ([]apperr.RowRejection, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = rowValues(r, columns)
	}

	tx, err := b.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	copyErr := copyRows(ctx, tx, t, names, values)
	if copyErr == nil {
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit batch into %s: %w", t, err)
		}
		return nil, nil
	}
	if ctx.Err() != nil {
		return nil, copyErr
	}
	slog.Debug("Bulk copy failed, inserting row by row", "table", t.String(), "error", copyErr)

	insert := insertSQL(t, names)
	var rejected []apperr.RowRejection
	for i, v := range values {
		sp, err := tx.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to open savepoint: %w", err)
		}
		if _, err := sp.Exec(ctx, insert, v...); err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			if rbErr := sp.Rollback(ctx); rbErr != nil {
				return nil, fmt.Errorf("failed to roll back row %d: %w", i, rbErr)
			}
			rejected = append(rejected, apperr.RowRejection{Index: i, Reason: rejectReason(err)})
			continue
		}
		if err := sp.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to release savepoint: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit batch into %s: %w", t, err)
	}
	return rejected, nil
}

// copyRows runs COPY inside a savepoint so its failure leaves tx usable.
func copyRows(ctx context.Context, tx pgx.Tx, t domain.TableSpec, names []string, values [][]any) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return err
	}
	if _, err := sp.CopyFrom(ctx, pgx.Identifier{t.Dataset(), t.Table()}, names, pgx.CopyFromRows(values)); err != nil {
		_ = sp.Rollback(ctx)
		return err
	}
	return sp.Commit(ctx)
}

func insertSQL(t domain.TableSpec, names []string) string {
	cols := make([]string, len(names))
	params := make([]string, len(names))
	for i, n := range names {
		cols[i] = pgx.Identifier{n}.Sanitize()
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", ident(t), strings.Join(cols, ", "), strings.Join(params, ", "))
}

func rowValues(r domain.ValidatedRecord, columns []schema.Field) []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		out[i] = r[c.Name]
	}
	return out
}

func rejectReason(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Sprintf("%s (SQLSTATE %s)", pgErr.Message, pgErr.Code)
	}
	return err.Error()
}

func isPgCode(err error, codes ...string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	for _, c := range codes {
		if pgErr.Code == c {
			return true
		}
	}
	return false
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

func (b *Backend) Close() error {
	b.pool.Close()
	return nil
}
