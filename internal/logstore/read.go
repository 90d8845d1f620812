package logstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rewindlabs/rewind/internal/txlog"
	"github.com/rewindlabs/rewind/internal/world"
)

// LoadAll returns every archived transaction in ascending id order, ready to
// hand to txlog.FromArchive.
func (s *Store) LoadAll(ctx context.Context) ([]txlog.Committed, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT major, minor, kind, x, y, z,
		       new_provider, new_local, new_aux,
		       exp_provider, exp_local, exp_aux,
		       target_major, target_minor, owner, stamp
		FROM transactions
		ORDER BY major ASC, minor ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	defer rows.Close()

	var txs []txlog.Committed
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// scanTransaction rebuilds one committed transaction from its row.
func scanTransaction(rows *sql.Rows) (txlog.Committed, error) {
	var major, minor uint32
	var kindName, ownerText, stampText string
	var x, y, z sql.NullInt64
	var newProvider, newLocal, newAux sql.NullInt64
	var expProvider, expLocal, expAux sql.NullInt64
	var targetMajor, targetMinor sql.NullInt64
	if err := rows.Scan(&major, &minor, &kindName, &x, &y, &z,
		&newProvider, &newLocal, &newAux,
		&expProvider, &expLocal, &expAux,
		&targetMajor, &targetMinor, &ownerText, &stampText); err != nil {
		return txlog.Committed{}, fmt.Errorf("scan transaction: %w", err)
	}

	kind, err := txlog.ParseOpKind(kindName)
	if err != nil {
		return txlog.Committed{}, fmt.Errorf("scan transaction %d.%d: %w", major, minor, err)
	}

	var op txlog.Op
	switch kind {
	case txlog.OpSet:
		op = txlog.SetOp(scannedState(newProvider, newLocal, newAux))
	case txlog.OpReplace:
		op = txlog.ReplaceOp(
			scannedState(expProvider, expLocal, expAux),
			scannedState(newProvider, newLocal, newAux),
		)
	case txlog.OpUndo:
		op = txlog.UndoOp(txlog.TransactionID{
			Major: uint32(targetMajor.Int64),
			Minor: uint32(targetMinor.Int64),
		})
	}

	owner, err := uuid.Parse(ownerText)
	if err != nil {
		return txlog.Committed{}, fmt.Errorf("scan transaction %d.%d: owner: %w", major, minor, err)
	}

	var stamp time.Time
	if stampText != "" {
		stamp, err = time.Parse(time.RFC3339Nano, stampText)
		if err != nil {
			return txlog.Committed{}, fmt.Errorf("scan transaction %d.%d: stamp: %w", major, minor, err)
		}
	}

	var coord *world.Coord
	if x.Valid {
		coord = &world.Coord{X: int(x.Int64), Y: int(y.Int64), Z: int(z.Int64)}
	}

	return txlog.Committed{
		Pending: txlog.Pending{Op: op, Owner: owner, Stamp: stamp, Coord: coord},
		ID:      txlog.TransactionID{Major: major, Minor: minor},
	}, nil
}

func scannedState(provider, local, aux sql.NullInt64) world.BlockState {
	s := world.BlockState{Block: world.Block{
		Provider: uint16(provider.Int64),
		Local:    uint16(local.Int64),
	}}
	if aux.Valid {
		s.Aux = world.NewAuxData(int32(aux.Int64))
	}
	return s
}
