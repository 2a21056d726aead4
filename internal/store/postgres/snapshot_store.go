package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

// SnapshotStore implements domain.SnapshotStore. Each write replaces the
// previous snapshot in one transaction, so readers never see a mix of runs.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a SnapshotStore backed by the given pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

var snapshotColumns = []string{
	"category", "rank", "symbol", "spread_pct",
	"buy_venue", "sell_venue", "buy_label", "sell_label",
	"buy_price", "sell_price", "liquidity_usd",
	"buy_network", "sell_network",
}

// ReplaceLatest swaps in snap as the only stored snapshot.
func (s *SnapshotStore) ReplaceLatest(ctx context.Context, snap domain.Snapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin replace snapshot: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const upsertRun = `
		INSERT INTO spread_snapshot_run (id, run_id, generated_at, spot_count, futures_count, dex_count)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			run_id        = EXCLUDED.run_id,
			generated_at  = EXCLUDED.generated_at,
			spot_count    = EXCLUDED.spot_count,
			futures_count = EXCLUDED.futures_count,
			dex_count     = EXCLUDED.dex_count`
	if _, err := tx.Exec(ctx, upsertRun, snap.RunID, snap.GeneratedAt,
		len(snap.Report.Spot), len(snap.Report.Futures), len(snap.Report.Dex)); err != nil {
		return fmt.Errorf("postgres: upsert snapshot run %s: %w", snap.RunID, err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM spread_snapshot"); err != nil {
		return fmt.Errorf("postgres: clear snapshot: %w", err)
	}

	rows := snapshotRows(snap.Report)
	if len(rows) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"spread_snapshot"}, snapshotColumns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("postgres: copy snapshot rows: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit snapshot %s: %w", snap.RunID, err)
	}
	return nil
}

func snapshotRows(r domain.Report) [][]any {
	rows := make([][]any, 0, r.Len())
	for _, cat := range domain.Categories {
		for i, o := range r.Section(cat) {
			var liquidity *float64
			if o.HasLiquidity {
				v := o.LiquidityUSD
				liquidity = &v
			}
			rows = append(rows, []any{
				string(cat), i + 1, o.Symbol, o.SpreadPct,
				o.BuyVenue, o.SellVenue, o.BuyLabel, o.SellLabel,
				o.BuyPrice, o.SellPrice, liquidity,
				o.BuyNetwork, o.SellNetwork,
			})
		}
	}
	return rows
}

// Latest loads the stored snapshot. It returns domain.ErrNotFound before the
// first write.
func (s *SnapshotStore) Latest(ctx context.Context) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := s.pool.QueryRow(ctx,
		"SELECT run_id::text, generated_at FROM spread_snapshot_run WHERE id = 1",
	).Scan(&snap.RunID, &snap.GeneratedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Snapshot{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("postgres: get snapshot run: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT category, symbol, spread_pct, buy_venue, sell_venue, buy_label, sell_label,
		       buy_price, sell_price, liquidity_usd, buy_network, sell_network
		FROM spread_snapshot
		ORDER BY category, rank`)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("postgres: list snapshot rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			o         domain.SpreadOpportunity
			category  string
			liquidity *float64
		)
		if err := rows.Scan(&category, &o.Symbol, &o.SpreadPct, &o.BuyVenue, &o.SellVenue,
			&o.BuyLabel, &o.SellLabel, &o.BuyPrice, &o.SellPrice, &liquidity,
			&o.BuyNetwork, &o.SellNetwork); err != nil {
			return domain.Snapshot{}, fmt.Errorf("postgres: scan snapshot row: %w", err)
		}
		o.Category = domain.Category(category)
		if liquidity != nil {
			o.LiquidityUSD, o.HasLiquidity = *liquidity, true
		}
		switch o.Category {
		case domain.CategorySpot:
			snap.Report.Spot = append(snap.Report.Spot, o)
		case domain.CategoryFutures:
			snap.Report.Futures = append(snap.Report.Futures, o)
		case domain.CategoryDex:
			snap.Report.Dex = append(snap.Report.Dex, o)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("postgres: iterate snapshot rows: %w", err)
	}
	return snap, nil
}

// Name identifies the store as a report sink.
func (s *SnapshotStore) Name() string { return "postgres" }

// Store implements domain.ReportSink.
func (s *SnapshotStore) Store(ctx context.Context, snap domain.Snapshot) error {
	return s.ReplaceLatest(ctx, snap)
}

var (
	_ domain.SnapshotStore = (*SnapshotStore)(nil)
	_ domain.ReportSink    = (*SnapshotStore)(nil)
)
