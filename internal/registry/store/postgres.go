package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"idcheck/internal/registry/metrics"
	"idcheck/internal/registry/models"
	id "idcheck/pkg/domain"
)

// DefaultRollTable is the relation read and written when none is configured.
const DefaultRollTable = "electoral_roll"

var rollColumns = []string{"id", "given_names", "first_surname", "second_surname"}

// ParseTableName splits an optionally schema-qualified relation name into a
// quoted pgx identifier.
func ParseTableName(name string) (pgx.Identifier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultRollTable
	}
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("invalid roll table %q", name)
	}
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("invalid roll table %q", name)
		}
	}
	return pgx.Identifier(parts), nil
}

// PostgresLoader reads the roll from a PostgreSQL relation with the columns
// id, given_names, first_surname and second_surname.
type PostgresLoader struct {
	pool    *pgxpool.Pool
	table   pgx.Identifier
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewPostgresLoader constructs a loader for the named relation.
func NewPostgresLoader(pool *pgxpool.Pool, table string, logger *slog.Logger, m *metrics.Metrics) (*PostgresLoader, error) {
	ident, err := ParseTableName(table)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &PostgresLoader{pool: pool, table: ident, logger: logger, metrics: m}, nil
}

func (l *PostgresLoader) Load(ctx context.Context) (*Table, error) {
	source := "postgres:" + strings.Join(l.table, ".")
	ctx, span := otel.Tracer("idcheck/registry").Start(ctx, "registry.LoadPostgres")
	defer span.End()
	span.SetAttributes(attribute.String("registry.source", source))

	start := time.Now()
	query := fmt.Sprintf(
		"SELECT id, COALESCE(given_names, ''), COALESCE(first_surname, ''), COALESCE(second_surname, '') FROM %s",
		l.table.Sanitize(),
	)
	rows, err := l.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query roll: %w", err)
	}
	defer rows.Close()

	var (
		records  []models.Record
		rejected int
	)
	for rows.Next() {
		var (
			rawID                int64
			given, first, second string
		)
		if err := rows.Scan(&rawID, &given, &first, &second); err != nil {
			return nil, fmt.Errorf("scan roll row: %w", err)
		}
		if rawID < 0 {
			rejected++
			continue
		}
		records = append(records, models.Record{
			ID:            id.CitizenID(rawID),
			GivenNames:    given,
			FirstSurname:  first,
			SecondSurname: second,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roll rows: %w", err)
	}

	table := NewTable(records)
	table.stats.Source = source
	table.stats.Rejected = rejected
	table.stats.Duration = time.Since(start)

	span.SetAttributes(attribute.Int("registry.records", table.stats.Records))
	l.metrics.ObserveLoad(table.stats)
	l.logger.InfoContext(ctx, "electoral roll loaded",
		"source", source,
		"records", table.stats.Records,
		"duplicates", table.stats.Duplicates,
		"rejected", rejected,
		"duration_ms", table.stats.Duration.Milliseconds(),
	)
	return table, nil
}

// PostgresImporter bulk-copies a loaded Table into PostgreSQL.
type PostgresImporter struct {
	pool  *pgxpool.Pool
	table pgx.Identifier
}

// NewPostgresImporter constructs an importer writing to the named relation.
func NewPostgresImporter(pool *pgxpool.Pool, table string) (*PostgresImporter, error) {
	ident, err := ParseTableName(table)
	if err != nil {
		return nil, err
	}
	return &PostgresImporter{pool: pool, table: ident}, nil
}

// EnsureSchema creates the roll relation if it does not exist. IDs are not
// unique at the database level because the roll is loaded as published.
func (i *PostgresImporter) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGINT NOT NULL,
	given_names TEXT NOT NULL DEFAULT '',
	first_surname TEXT NOT NULL DEFAULT '',
	second_surname TEXT NOT NULL DEFAULT ''
)`, i.table.Sanitize())
	if _, err := i.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create roll table: %w", err)
	}
	return nil
}

// Import copies every row of t. With replace set, existing rows are removed in
// the same transaction first.
func (i *PostgresImporter) Import(ctx context.Context, t *Table, replace bool) (int64, error) {
	records := t.All()
	for _, r := range records {
		if uint64(r.ID) > math.MaxInt64 {
			return 0, fmt.Errorf("citizen id %s exceeds BIGINT range", r.ID)
		}
	}

	tx, err := i.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if replace {
		if _, err := tx.Exec(ctx, "TRUNCATE "+i.table.Sanitize()); err != nil {
			return 0, fmt.Errorf("truncate roll table: %w", err)
		}
	}

	n, err := tx.CopyFrom(ctx, i.table, rollColumns, pgx.CopyFromSlice(len(records), func(idx int) ([]any, error) {
		r := records[idx]
		return []any{int64(r.ID), r.GivenNames, r.FirstSurname, r.SecondSurname}, nil
	}))
	if err != nil {
		return 0, fmt.Errorf("copy roll rows: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return n, nil
}
