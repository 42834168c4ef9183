package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"document-qa/internal/config"
)

// ChunkRecord is one embedded chunk. Rows are grouped by IndexID, one group
// per built index.
type ChunkRecord struct {
	bun.BaseModel `bun:"table:document_chunks,alias:dc"`
	ID            int64           `bun:"id,pk,autoincrement"`
	IndexID       string          `bun:"index_id,notnull"`
	ChunkID       string          `bun:"chunk_id,notnull"`
	ChunkIndex    int             `bun:"chunk_index,notnull"`
	Segment       int             `bun:"segment,notnull"`
	Page          int             `bun:"page,notnull"`
	Source        string          `bun:"source"`
	Content       string          `bun:"content,notnull"`
	Embedding     pgvector.Vector `bun:"embedding,notnull,type:vector"`
	Distance      float64         `bun:"distance,scanonly"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// ConnectDB opens the configured driver: bun's pgdriver by default, or
// lib/pq when driver is "pq".
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn is required")
	}
	switch cfg.Driver {
	case "", "pgdriver":
		return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN))), nil
	case "pq":
		return sql.Open("postgres", cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Driver)
	}
}

func InitDB(ctx context.Context, db *bun.DB) error {
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("enable pgvector: %w", err)
	}
	if _, err := db.NewCreateTable().Model((*ChunkRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	_, err := db.NewCreateIndex().
		Model((*ChunkRecord)(nil)).
		Index("document_chunks_index_id_idx").
		Column("index_id").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// TruncateChunks removes every stored chunk. Indexes live only as long as
// the process, so rows left from a previous run are stale.
func TruncateChunks(ctx context.Context, db *bun.DB) error {
	_, err := db.NewTruncateTable().Model((*ChunkRecord)(nil)).Exec(ctx)
	return err
}

func StoreChunks(ctx context.Context, db *bun.DB, records []ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := db.NewInsert().Model(&records).Exec(ctx)
	return err
}

// SearchChunks returns the nearest rows of one index by cosine distance
func SearchChunks(ctx context.Context, db *bun.DB, indexID string, queryEmbedding []float32, limit int) ([]ChunkRecord, error) {
	var records []ChunkRecord
	query := pgvector.NewVector(queryEmbedding)
	err := db.NewSelect().
		Model(&records).
		Column("chunk_id", "chunk_index", "segment", "page", "source", "content").
		ColumnExpr("embedding <=> ? AS distance", query).
		Where("index_id = ?", indexID).
		OrderExpr("embedding <=> ?", query).
		Limit(limit).
		Scan(ctx)
	return records, err
}

func DeleteChunks(ctx context.Context, db *bun.DB, indexID string) error {
	_, err := db.NewDelete().Model((*ChunkRecord)(nil)).Where("index_id = ?", indexID).Exec(ctx)
	return err
}
