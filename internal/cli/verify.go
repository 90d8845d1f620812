package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rewindlabs/rewind/internal/logstore"
	"github.com/rewindlabs/rewind/internal/txlog"
	"github.com/rewindlabs/rewind/internal/world"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Database string
}

// Violation describes one invariant broken by an archived transaction.
type Violation struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// VerifyResult holds the complete verification output.
type VerifyResult struct {
	Transactions int         `json:"transactions"`
	Sets         int         `json:"sets"`
	Replaces     int         `json:"replaces"`
	Undos        int         `json:"undos"`
	Coordinates  int         `json:"coordinates"`
	Violations   []Violation `json:"violations"`
	OK           bool        `json:"ok"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the invariants of a transaction archive",
		Long: `Load an archived transaction log and check the invariants every
well-formed archive must hold:

- Transaction ids are strictly ascending
- Set and Replace carry a coordinate, Undo does not
- Every undo targets an earlier transaction in the archive
- Undo chains terminate at a coordinate-bearing transaction
- Replaying any coordinate twice yields the same state

Exits 0 when the archive is clean, 1 when any invariant is violated.

Examples:
  rewindctl verify --db ./world.db
  rewindctl verify --db ./world.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to archive database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := logstore.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open archive", err)
	}
	defer st.Close()

	txs, err := st.LoadAll(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load transactions", err)
	}
	formatter.VerboseLog("Loaded %d transaction(s) from %s", len(txs), opts.Database)

	result := verifyTransactions(txs)

	if opts.Format == "json" {
		if err := outputVerifyJSON(cmd, result); err != nil {
			return err
		}
	} else {
		outputVerifyText(cmd.OutOrStdout(), result)
	}

	if !result.OK {
		return NewExitError(ExitFailure, fmt.Sprintf("verification failed with %d violation(s)", len(result.Violations)))
	}
	return nil
}

// verifyTransactions runs every structural check over the archived log.
func verifyTransactions(txs []txlog.Committed) VerifyResult {
	result := VerifyResult{Violations: []Violation{}}
	result.Transactions = len(txs)

	seen := make(map[txlog.TransactionID]bool, len(txs))
	coords := make(map[world.Coord]bool)

	var prev txlog.TransactionID
	for i, tx := range txs {
		if i > 0 && !prev.Less(tx.ID) {
			result.Violations = append(result.Violations, Violation{
				ID:      tx.ID.String(),
				Message: fmt.Sprintf("id does not ascend past %s", prev),
			})
		}
		prev = tx.ID

		switch tx.Op.Kind {
		case txlog.OpSet:
			result.Sets++
			if tx.Coord == nil {
				result.Violations = append(result.Violations, Violation{
					ID:      tx.ID.String(),
					Message: "set without coordinate",
				})
			}
		case txlog.OpReplace:
			result.Replaces++
			if tx.Coord == nil {
				result.Violations = append(result.Violations, Violation{
					ID:      tx.ID.String(),
					Message: "replace without coordinate",
				})
			}
		case txlog.OpUndo:
			result.Undos++
			if tx.Coord != nil {
				result.Violations = append(result.Violations, Violation{
					ID:      tx.ID.String(),
					Message: "undo carries a coordinate",
				})
			}
			if !tx.Op.Target.Less(tx.ID) {
				result.Violations = append(result.Violations, Violation{
					ID:      tx.ID.String(),
					Message: fmt.Sprintf("undo target %s does not precede it", tx.Op.Target),
				})
			} else if !seen[tx.Op.Target] {
				result.Violations = append(result.Violations, Violation{
					ID:      tx.ID.String(),
					Message: fmt.Sprintf("undo target %s not in archive", tx.Op.Target),
				})
			}
		default:
			result.Violations = append(result.Violations, Violation{
				ID:      tx.ID.String(),
				Message: fmt.Sprintf("unknown operation kind %d", tx.Op.Kind),
			})
		}
		seen[tx.ID] = true

		if tx.Coord != nil {
			coords[*tx.Coord] = true
		}
	}

	// Structural checks that need the fully rebuilt log.
	if log, err := txlog.FromArchive(txs); err == nil {
		for _, tx := range txs {
			if tx.Op.Kind != txlog.OpUndo {
				continue
			}
			if _, ok := log.ResolvedCoordinateOf(tx.ID); !ok {
				result.Violations = append(result.Violations, Violation{
					ID:      tx.ID.String(),
					Message: "undo chain does not resolve to a coordinate",
				})
			}
		}

		// The archive records no default state; the zero block state stands
		// in for it. The determinism check holds under any default.
		var def world.BlockState
		for c := range coords {
			history := log.HistoryOf(c)
			first := txlog.Replay(history, def)
			second := txlog.Replay(history, def)
			if first != second {
				result.Violations = append(result.Violations, Violation{
					Message: fmt.Sprintf("replay of (%d, %d, %d) is not deterministic", c.X, c.Y, c.Z),
				})
			}
		}
	}

	result.Coordinates = len(coords)
	result.OK = len(result.Violations) == 0
	return result
}

// outputVerifyJSON outputs the verify result as JSON.
func outputVerifyJSON(cmd *cobra.Command, result VerifyResult) error {
	status := "ok"
	if !result.OK {
		status = "error"
	}
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(CLIResponse{
		Status: status,
		Data:   result,
	})
}

// outputVerifyText outputs the verify result as text.
func outputVerifyText(w io.Writer, result VerifyResult) {
	fmt.Fprintln(w, "=== Archive ===")
	fmt.Fprintf(w, "  Transactions: %d\n", result.Transactions)
	fmt.Fprintf(w, "  Sets:         %d\n", result.Sets)
	fmt.Fprintf(w, "  Replaces:     %d\n", result.Replaces)
	fmt.Fprintf(w, "  Undos:        %d\n", result.Undos)
	fmt.Fprintf(w, "  Coordinates:  %d\n", result.Coordinates)
	fmt.Fprintln(w)

	if result.OK {
		fmt.Fprintln(w, "OK: all invariants hold")
		return
	}

	fmt.Fprintln(w, "=== Violations ===")
	for _, v := range result.Violations {
		if v.ID != "" {
			fmt.Fprintf(w, "  [%s] %s\n", v.ID, v.Message)
		} else {
			fmt.Fprintf(w, "  %s\n", v.Message)
		}
	}
}
