package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/DjordjeVuckovic/table-ingest/internal/domain"
	"github.com/DjordjeVuckovic/table-ingest/internal/schema"
)

// Dialect covers what differs between the SQL engines behind Backend.
type Dialect interface {
	Name() string
	Driver() string
	Table(t domain.TableSpec) string
	Quote(name string) string
	ColumnType(ft schema.FieldType) string
	// Prepare makes sure the namespace that holds t exists.
	Prepare(ctx context.Context, db *sql.DB, t domain.TableSpec) error
	Exists(ctx context.Context, db *sql.DB, t domain.TableSpec) (bool, error)
	Describe(ctx context.Context, db *sql.DB, t domain.TableSpec) ([]schema.Field, error)
	TruncateSQL(t domain.TableSpec) string
	IsTableExists(err error) bool
}

// DialectFor resolves a driver name from configuration.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return SQLite{}, nil
	case "mysql":
		return MySQL{}, nil
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
}

// SQLite has no schemas, so dataset and table are joined with a dot into one
// quoted name. TableSpec parts never contain a dot, so the name is unambiguous.
type SQLite struct{}

func (SQLite) Name() string   { return "sqlite" }
func (SQLite) Driver() string { return "sqlite" }

func (d SQLite) Table(t domain.TableSpec) string {
	return d.Quote(d.tableName(t))
}

func (SQLite) tableName(t domain.TableSpec) string {
	return t.Dataset() + "." + t.Table()
}

func (SQLite) Quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (SQLite) ColumnType(ft schema.FieldType) string {
	switch ft {
	case schema.Integer:
		return "INTEGER"
	case schema.Float:
		return "REAL"
	case schema.Boolean:
		return "BOOLEAN"
	case schema.Timestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

func (SQLite) Prepare(context.Context, *sql.DB, domain.TableSpec) error {
	return nil
}

func (d SQLite) Exists(ctx context.Context, db *sql.DB, t domain.TableSpec) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", d.tableName(t)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d SQLite) Describe(ctx context.Context, db *sql.DB, t domain.TableSpec) ([]schema.Field, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT cid, name, type, \"notnull\", dflt_value, pk FROM pragma_table_info(?)", d.tableName(t))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []schema.Field
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		fields = append(fields, schema.Field{
			Name:     name,
			Type:     sqliteFieldType(typ),
			Optional: notNull == 0,
		})
	}
	return fields, rows.Err()
}

func sqliteFieldType(typ string) schema.FieldType {
	upper := strings.ToUpper(strings.TrimSpace(typ))
	switch upper {
	case "INTEGER", "INT", "BIGINT":
		return schema.Integer
	case "REAL", "DOUBLE", "FLOAT":
		return schema.Float
	case "TEXT":
		return schema.String
	case "BOOLEAN", "BOOL":
		return schema.Boolean
	case "TIMESTAMP", "DATETIME":
		return schema.Timestamp
	}
	if strings.HasPrefix(upper, "VARCHAR") {
		return schema.String
	}
	return schema.FieldType(upper)
}

func (d SQLite) TruncateSQL(t domain.TableSpec) string {
	return "DELETE FROM " + d.Table(t)
}

func (SQLite) IsTableExists(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}

// MySQL maps the dataset to a database.
type MySQL struct{}

const mysqlErrTableExists = 1050

func (MySQL) Name() string   { return "mysql" }
func (MySQL) Driver() string { return "mysql" }

func (d MySQL) Table(t domain.TableSpec) string {
	return d.Quote(t.Dataset()) + "." + d.Quote(t.Table())
}

func (MySQL) Quote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (MySQL) ColumnType(ft schema.FieldType) string {
	switch ft {
	case schema.Integer:
		return "BIGINT"
	case schema.Float:
		return "DOUBLE"
	case schema.Boolean:
		return "BOOLEAN"
	case schema.Timestamp:
		return "DATETIME(6)"
	default:
		return "TEXT"
	}
}

func (d MySQL) Prepare(ctx context.Context, db *sql.DB, t domain.TableSpec) error {
	_, err := db.ExecContext(ctx, "CREATE DATABASE IF NOT EXISTS "+d.Quote(t.Dataset()))
	return err
}

func (MySQL) Exists(ctx context.Context, db *sql.DB, t domain.TableSpec) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = ? AND table_name = ?`, t.Dataset(), t.Table()).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (MySQL) Describe(ctx context.Context, db *sql.DB, t domain.TableSpec) ([]schema.Field, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT column_name, data_type, column_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`, t.Dataset(), t.Table())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []schema.Field
	for rows.Next() {
		var name, dataType, columnType, nullable string
		if err := rows.Scan(&name, &dataType, &columnType, &nullable); err != nil {
			return nil, err
		}
		fields = append(fields, schema.Field{
			Name:     name,
			Type:     mysqlFieldType(dataType, columnType),
			Optional: nullable == "YES",
		})
	}
	return fields, rows.Err()
}

func mysqlFieldType(dataType, columnType string) schema.FieldType {
	switch strings.ToLower(dataType) {
	case "tinyint":
		if strings.ToLower(columnType) == "tinyint(1)" {
			return schema.Boolean
		}
		return schema.Integer
	case "bigint", "int", "smallint", "mediumint":
		return schema.Integer
	case "double", "float", "decimal":
		return schema.Float
	case "text", "varchar", "char", "mediumtext", "longtext":
		return schema.String
	case "datetime", "timestamp", "date":
		return schema.Timestamp
	default:
		return schema.FieldType(strings.ToUpper(dataType))
	}
}

func (d MySQL) TruncateSQL(t domain.TableSpec) string {
	return "TRUNCATE TABLE " + d.Table(t)
}

func (MySQL) IsTableExists(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlErrTableExists
}
