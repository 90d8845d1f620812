package logstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rewindlabs/rewind/internal/txlog"
	"github.com/rewindlabs/rewind/internal/world"
)

// Archive writes committed transactions into the store, all in one database
// transaction. Entries already present are silently skipped (ON CONFLICT DO
// NOTHING), so archiving an engine's full log after every burst of activity
// is safe and only appends the delta.
func (s *Store) Archive(ctx context.Context, txs []txlog.Committed) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("archive: begin tx: %w", err)
	}
	defer dbTx.Rollback() // No-op if committed

	stmt, err := dbTx.PrepareContext(ctx, `
		INSERT INTO transactions
		(major, minor, kind, x, y, z,
		 new_provider, new_local, new_aux,
		 exp_provider, exp_local, exp_aux,
		 target_major, target_minor, owner, stamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(major, minor) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("archive: prepare: %w", err)
	}
	defer stmt.Close()

	for _, tx := range txs {
		if _, err := stmt.ExecContext(ctx, rowValues(tx)...); err != nil {
			return fmt.Errorf("archive %s: %w", tx.ID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("archive: commit: %w", err)
	}
	return nil
}

// rowValues flattens a committed transaction into the column order of the
// insert statement above.
func rowValues(tx txlog.Committed) []any {
	var x, y, z any
	if tx.Coord != nil {
		x, y, z = tx.Coord.X, tx.Coord.Y, tx.Coord.Z
	}

	var newProvider, newLocal, newAux any
	var expProvider, expLocal, expAux any
	var targetMajor, targetMinor any

	switch tx.Op.Kind {
	case txlog.OpReplace:
		expProvider, expLocal, expAux = stateValues(tx.Op.Expected)
		fallthrough
	case txlog.OpSet:
		newProvider, newLocal, newAux = stateValues(tx.Op.New)
	case txlog.OpUndo:
		targetMajor, targetMinor = tx.Op.Target.Major, tx.Op.Target.Minor
	}

	stamp := ""
	if !tx.Stamp.IsZero() {
		stamp = tx.Stamp.Format(time.RFC3339Nano)
	}

	return []any{
		tx.ID.Major, tx.ID.Minor, tx.Op.Kind.String(), x, y, z,
		newProvider, newLocal, newAux,
		expProvider, expLocal, expAux,
		targetMajor, targetMinor, tx.Owner.String(), stamp,
	}
}

func stateValues(s world.BlockState) (provider, local, aux any) {
	provider, local = s.Block.Provider, s.Block.Local
	if v, ok := s.Aux.Value(); ok {
		aux = v
	}
	return provider, local, aux
}

// Count returns the number of archived transactions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// MaxID returns the highest archived id, or ok=false for an empty archive.
func (s *Store) MaxID(ctx context.Context) (_ txlog.TransactionID, ok bool, err error) {
	var major, minor sql.NullInt64
	err = s.db.QueryRowContext(ctx, `
		SELECT major, minor FROM transactions
		ORDER BY major DESC, minor DESC LIMIT 1
	`).Scan(&major, &minor)
	if err == sql.ErrNoRows {
		return txlog.TransactionID{}, false, nil
	}
	if err != nil {
		return txlog.TransactionID{}, false, fmt.Errorf("max id: %w", err)
	}
	return txlog.TransactionID{
		Major: uint32(major.Int64),
		Minor: uint32(minor.Int64),
	}, true, nil
}
