package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/DjordjeVuckovic/table-ingest/internal/apperr"
	"github.com/DjordjeVuckovic/table-ingest/internal/domain"
	"github.com/DjordjeVuckovic/table-ingest/internal/schema"
)

type Config struct {
	Driver string
	DSN    string
}

// Backend stores tables through database/sql. The engine specific parts live in its Dialect.
type Backend struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to the database named by cfg and checks it is reachable.
func Open(ctx context.Context, cfg Config) (*Backend, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(dialect.Driver(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dialect.Name(), err)
	}
	if dialect.Name() == "sqlite" {
		// one writer at a time, otherwise transactions hit SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", dialect.Name(), err)
	}
	return New(db, dialect), nil
}

func New(db *sql.DB, dialect Dialect) *Backend {
	return &Backend{db: db, dialect: dialect}
}

func (b *Backend) Name() string {
	return b.dialect.Name()
}

func (b *Backend) Exists(ctx context.Context, t domain.TableSpec) (bool, error) {
	ok, err := b.dialect.Exists(ctx, b.db, t)
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", t, err)
	}
	return ok, nil
}

func (b *Backend) Create(ctx context.Context, t domain.TableSpec, s *schema.Schema) error {
	if err := b.dialect.Prepare(ctx, b.db, t); err != nil {
		return fmt.Errorf("failed to prepare namespace for %s: %w", t, err)
	}
	ddl := b.createTableSQL(t, s)
	slog.Debug("Creating table", "backend", b.Name(), "table", t.String(), "ddl", ddl)
	if _, err := b.db.ExecContext(ctx, ddl); err != nil {
		if b.dialect.IsTableExists(err) {
			return apperr.ErrTableExists
		}
		return fmt.Errorf("failed to create table %s: %w", t, err)
	}
	return nil
}

func (b *Backend) createTableSQL(t domain.TableSpec, s *schema.Schema) string {
	cols := make([]string, 0, s.Len())
	for _, f := range s.Fields() {
		col := b.dialect.Quote(f.Name) + " " + b.dialect.ColumnType(f.Type)
		if !f.Optional {
			col += " NOT NULL"
		}
		cols = append(cols, col)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", b.dialect.Table(t), strings.Join(cols, ", "))
}

func (b *Backend) Describe(ctx context.Context, t domain.TableSpec) (*schema.Schema, error) {
	fields, err := b.dialect.Describe(ctx, b.db, t)
	if err != nil {
		return nil, fmt.Errorf("failed to describe table %s: %w", t, err)
	}
	return schema.Describe(fields), nil
}

func (b *Backend) CountRows(ctx context.Context, t domain.TableSpec) (int64, error) {
	var n int64
	if err := b.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+b.dialect.Table(t)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", t, err)
	}
	return n, nil
}

func (b *Backend) Truncate(ctx context.Context, t domain.TableSpec) error {
	if _, err := b.db.ExecContext(ctx, b.dialect.TruncateSQL(t)); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", t, err)
	}
	return nil
}

// Insert writes every row inside one transaction, each under its own savepoint.
// A row the engine refuses is rolled back to its savepoint and reported.
func (b *Backend) Insert(ctx context.Context, t domain.TableSpec, columns []schema.Field, rows []domain.ValidatedRecord) ([]apperr.RowRejection, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, b.insertSQL(t, columns))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert into %s: %w", t, err)
	}
	defer stmt.Close()

	var rejected []apperr.RowRejection
	for i, r := range rows {
		if _, err := tx.ExecContext(ctx, "SAVEPOINT ingest_row"); err != nil {
			return nil, fmt.Errorf("failed to open savepoint: %w", err)
		}

		args := make([]any, len(columns))
		for j, c := range columns {
			args[j] = r[c.Name]
		}

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT ingest_row"); rbErr != nil {
				return nil, fmt.Errorf("failed to roll back row %d: %w", i, rbErr)
			}
			rejected = append(rejected, apperr.RowRejection{Index: i, Reason: err.Error()})
		}
		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT ingest_row"); err != nil {
			return nil, fmt.Errorf("failed to release savepoint: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch into %s: %w", t, err)
	}
	return rejected, nil
}

func (b *Backend) insertSQL(t domain.TableSpec, columns []schema.Field) string {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = b.dialect.Quote(c.Name)
	}
	params := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", b.dialect.Table(t), strings.Join(cols, ", "), params)
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *Backend) Close() error {
	return b.db.Close()
}
