package pg

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DjordjeVuckovic/table-ingest/internal/apperr"
	"github.com/DjordjeVuckovic/table-ingest/internal/domain"
	"github.com/DjordjeVuckovic/table-ingest/internal/schema"
	"github.com/DjordjeVuckovic/table-ingest/internal/storage"
	pkgtesting "github.com/DjordjeVuckovic/table-ingest/pkg/testing"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	pkgtesting.SkipIfShort(t)
	ctx := context.Background()

	pg := pkgtesting.NewPGContainerWithCleanup(ctx, t)
	pool, err := NewConnectionPool(ctx, PoolConfig{ConnStr: pg.ConnString, ConnectTimeout: 10 * time.Second})
	require.NoError(t, err)

	b := NewBackend(pool)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBackend_Lifecycle(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	tbl, err := domain.NewTableSpec("", "raw_layer", "events")
	require.NoError(t, err)
	s, err := schema.Parse("id:INTEGER,message:STRING,score:FLOAT:NULLABLE,ok:BOOLEAN:NULLABLE,at:TIMESTAMP:NULLABLE")
	require.NoError(t, err)

	// Act & Assert
	exists, err := b.Exists(ctx, tbl)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, b.Create(ctx, tbl, s))
	assert.ErrorIs(t, b.Create(ctx, tbl, s), apperr.ErrTableExists)

	exists, err = b.Exists(ctx, tbl)
	require.NoError(t, err)
	assert.True(t, exists)

	remote, err := b.Describe(ctx, tbl)
	require.NoError(t, err)
	assert.Empty(t, s.Compatible(remote))
	f, ok := remote.Field("id")
	require.True(t, ok)
	assert.False(t, f.Optional)

	rows := []domain.ValidatedRecord{
		{"id": int64(1), "message": "a", "score": 1.5, "ok": true, "at": time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"id": int64(2), "message": "b"},
	}
	rejected, err := b.Insert(ctx, tbl, s.Fields(), rows)
	require.NoError(t, err)
	assert.Empty(t, rejected)

	n, err := b.CountRows(ctx, tbl)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, b.Truncate(ctx, tbl))
	n, err = b.CountRows(ctx, tbl)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBackend_InsertRejectsOnlyBadRows(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	tbl, err := domain.NewTableSpec("", "raw_layer", "strict_ids")
	require.NoError(t, err)
	s := schema.MustNew([]schema.Field{{Name: "id", Type: schema.Integer}})
	require.NoError(t, b.Create(ctx, tbl, s))
	_, err = b.db.Exec(ctx, "ALTER TABLE "+ident(tbl)+" ADD CONSTRAINT strict_ids_pk PRIMARY KEY (id)")
	require.NoError(t, err)

	rows := []domain.ValidatedRecord{{"id": int64(1)}, {"id": int64(1)}, {"id": int64(2)}}
	rejected, err := b.Insert(ctx, tbl, s.Fields(), rows)

	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, 1, rejected[0].Index)
	assert.Contains(t, rejected[0].Reason, "23505")
	n, err := b.CountRows(ctx, tbl)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestSink_CreateNeverOnPostgres(t *testing.T) {
	b := newTestBackend(t)
	tbl, err := domain.NewTableSpec("", "raw_layer", "missing")
	require.NoError(t, err)
	s := schema.MustNew([]schema.Field{{Name: "id", Type: schema.Integer}})

	_, err = storage.NewSink(b).Commit(context.Background(), tbl, s,
		[]domain.ValidatedRecord{{"id": int64(1)}},
		domain.WriteDisposition{Create: domain.CreateNever, Write: domain.WriteAppend})

	var nf *apperr.TableNotFoundError
	assert.ErrorAs(t, err, &nf)
	exists, err := b.Exists(context.Background(), tbl)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFieldTypeRoundTrip(t *testing.T) {
	for _, ft := range []schema.FieldType{schema.Integer, schema.Float, schema.String, schema.Boolean, schema.Timestamp} {
		assert.Equal(t, ft, fieldType(columnType(ft)), ft)
	}
	assert.Equal(t, schema.FieldType("JSONB"), fieldType("jsonb"))
}

func TestCreateTableSQL(t *testing.T) {
	tbl, err := domain.NewTableSpec("", "raw", "t")
	require.NoError(t, err)
	s, err := schema.Parse("id:INTEGER,note:STRING:NULLABLE")
	require.NoError(t, err)

	assert.Equal(t, `CREATE TABLE "raw"."t" ("id" BIGINT NOT NULL, "note" TEXT)`, createTableSQL(tbl, s))
}
