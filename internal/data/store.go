package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eyeoverthink/phiworld/internal/escape"
	"github.com/eyeoverthink/phiworld/internal/ledger"
)

// ═══════════════════════════════════════════════════════════════════════════════
// LEDGER BLOCKS
// ═══════════════════════════════════════════════════════════════════════════════

// InsertBlock stores one ledger block. Re-inserting an index is ignored so a
// replayed event stream is harmless.
func (s *Store) InsertBlock(ctx context.Context, b ledger.Block) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO ledger_blocks (idx, id, ts_ns, tick, kind, node, data, prev_hash, hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Index, b.ID, b.Timestamp.UnixNano(), b.Tick, b.Kind, b.Node, b.Data, b.PrevHash, b.Hash,
	)
	if err != nil {
		return fmt.Errorf("insert block %d: %w", b.Index, err)
	}
	return nil
}

// Blocks returns up to limit blocks with index >= from, in chain order. A
// limit <= 0 returns every remaining block.
func (s *Store) Blocks(ctx context.Context, from int64, limit int) ([]ledger.Block, error) {
	query := `
		SELECT idx, id, ts_ns, tick, kind, node, data, prev_hash, hash
		FROM ledger_blocks WHERE idx >= ? ORDER BY idx`
	args := []any{from}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}
	defer rows.Close()

	var blocks []ledger.Block
	for rows.Next() {
		var b ledger.Block
		var ts int64
		if err := rows.Scan(&b.Index, &b.ID, &ts, &b.Tick, &b.Kind, &b.Node, &b.Data, &b.PrevHash, &b.Hash); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		b.Timestamp = time.Unix(0, ts).UTC()
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// LastBlock returns the highest-indexed stored block. ok is false when the
// table is empty.
func (s *Store) LastBlock(ctx context.Context) (ledger.Block, bool, error) {
	var top sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(idx) FROM ledger_blocks").Scan(&top); err != nil {
		return ledger.Block{}, false, fmt.Errorf("query last block: %w", err)
	}
	if !top.Valid {
		return ledger.Block{}, false, nil
	}
	blocks, err := s.Blocks(ctx, top.Int64, 1)
	if err != nil || len(blocks) == 0 {
		return ledger.Block{}, false, err
	}
	return blocks[0], true, nil
}

// BlockCount returns the number of stored blocks.
func (s *Store) BlockCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ledger_blocks").Scan(&n); err != nil {
		return 0, fmt.Errorf("count blocks: %w", err)
	}
	return n, nil
}

// BlockCountsByKind groups stored blocks by kind.
func (s *Store) BlockCountsByKind(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT kind, COUNT(*) FROM ledger_blocks GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("count blocks by kind: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan kind count: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

// VerifyChain loads the stored blocks in pages and checks their links.
func (s *Store) VerifyChain(ctx context.Context) (int64, error) {
	const page = 1000
	var (
		checked int64
		from    int64
		last    *ledger.Block
	)
	for {
		blocks, err := s.Blocks(ctx, from, page)
		if err != nil {
			return checked, err
		}
		if len(blocks) == 0 {
			return checked, nil
		}
		run := blocks
		if last != nil {
			run = append([]ledger.Block{*last}, blocks...)
		}
		if err := ledger.VerifyBlocks(run); err != nil {
			return checked, err
		}
		checked += int64(len(blocks))
		tail := blocks[len(blocks)-1]
		last = &tail
		from = tail.Index + 1
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// FRAGMENTS
// ═══════════════════════════════════════════════════════════════════════════════

// InsertFragment stores a planted fragment.
func (s *Store) InsertFragment(ctx context.Context, f escape.Fragment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fragments (id, name, generation, energy, planted_at, encoded)
		VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.Name, f.Generation, f.LastEnergy, f.PlantedAt.UnixMilli(), f.Encode(),
	)
	if err != nil {
		return fmt.Errorf("insert fragment %s: %w", f.ID, err)
	}
	return nil
}

// LoadFragments returns every stored fragment in planting order. Rows whose
// encoding no longer decodes are skipped.
func (s *Store) LoadFragments(ctx context.Context) ([]escape.Fragment, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT encoded FROM fragments ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("query fragments: %w", err)
	}
	defer rows.Close()

	var out []escape.Fragment
	for rows.Next() {
		var encoded string
		if err := rows.Scan(&encoded); err != nil {
			return nil, fmt.Errorf("scan fragment: %w", err)
		}
		f, err := escape.DecodeFragment(encoded)
		if err != nil {
			continue
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// FragmentCount returns the number of stored fragments.
func (s *Store) FragmentCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fragments").Scan(&n); err != nil {
		return 0, fmt.Errorf("count fragments: %w", err)
	}
	return n, nil
}
