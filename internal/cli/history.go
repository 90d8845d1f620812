package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rewindlabs/rewind/internal/dict"
	"github.com/rewindlabs/rewind/internal/logstore"
	"github.com/rewindlabs/rewind/internal/txlog"
	"github.com/rewindlabs/rewind/internal/world"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	X, Y, Z  int
	Dict     string // optional block dictionary for name display
}

// HistoryEvent is one transaction touching the queried coordinate, paired
// with the replayed state the coordinate held before it committed.
type HistoryEvent struct {
	ID     string           `json:"id"`
	Kind   string           `json:"kind"`
	Owner  string           `json:"owner,omitempty"`
	Stamp  string           `json:"stamp,omitempty"`
	Before world.BlockState `json:"before"`
	Tx     txlog.Committed  `json:"tx"`
}

// HistoryResult holds the complete history output for one coordinate.
type HistoryResult struct {
	Coord  world.Coord      `json:"coord"`
	Final  world.BlockState `json:"final"`
	Events []HistoryEvent   `json:"events"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the transaction history of a coordinate",
		Long: `Replay an archived transaction log and show every transaction that
affects one coordinate, including undos whose targets resolve there.

Each event is paired with the state the coordinate held just before that
transaction committed, so the output reads as a timeline of the
coordinate's visible states.

The archive records transactions only, not the default state the engine
was constructed with, so replay assumes the zero block state (block 0/0,
no aux data) wherever nothing has ever been written.

Examples:
  rewindctl history --db ./world.db --x 10 --y 4 --z 2
  rewindctl history --db ./world.db --x 10 --y 4 --z 2 --dict blocks.yaml
  rewindctl history --db ./world.db --x 10 --y 4 --z 2 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to archive database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVar(&opts.X, "x", 0, "coordinate x")
	cmd.Flags().IntVar(&opts.Y, "y", 0, "coordinate y")
	cmd.Flags().IntVar(&opts.Z, "z", 0, "coordinate z")
	cmd.Flags().StringVar(&opts.Dict, "dict", "", "block dictionary YAML for name display")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	log, err := loadArchive(ctx, opts.Database, formatter)
	if err != nil {
		return err
	}

	var names *dict.Dictionary
	if opts.Dict != "" {
		names, err = dict.Load(opts.Dict)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load dictionary", err)
		}
	}

	coord := world.Coord{X: opts.X, Y: opts.Y, Z: opts.Z}
	history := log.HistoryOf(coord)

	// Archives record no engine default; replay assumes the zero state.
	var def world.BlockState
	befores := txlog.PrefixStates(history, def)
	result := HistoryResult{
		Coord:  coord,
		Final:  txlog.Replay(history, def),
		Events: make([]HistoryEvent, 0, len(history)),
	}
	for i, tx := range history {
		result.Events = append(result.Events, HistoryEvent{
			ID:     tx.ID.String(),
			Kind:   tx.Op.Kind.String(),
			Owner:  ownerLabel(tx.Owner),
			Stamp:  stampLabel(tx.Stamp),
			Before: befores[i],
			Tx:     tx,
		})
	}

	if opts.Format == "json" {
		return outputHistoryJSON(cmd, result)
	}
	return outputHistoryText(cmd.OutOrStdout(), result, names, opts.Verbose)
}

// loadArchive opens the database, loads every archived transaction and
// rebuilds the in-memory log. Verify loads raw rows itself instead, so a
// malformed archive surfaces as a report rather than a load error.
func loadArchive(ctx context.Context, path string, formatter *OutputFormatter) (*txlog.Log, error) {
	st, err := logstore.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open archive", err)
	}
	defer st.Close()

	txs, err := st.LoadAll(ctx)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load transactions", err)
	}
	formatter.VerboseLog("Loaded %d transaction(s) from %s", len(txs), path)

	log, err := txlog.FromArchive(txs)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "archive violates log ordering", err)
	}
	return log, nil
}

// ownerLabel renders an owner id, hiding the nil uuid.
func ownerLabel(owner uuid.UUID) string {
	if owner == uuid.Nil {
		return ""
	}
	return owner.String()
}

// stampLabel renders a stamp, hiding the zero time.
func stampLabel(stamp time.Time) string {
	if stamp.IsZero() {
		return ""
	}
	return stamp.Format(time.RFC3339Nano)
}

// outputHistoryJSON outputs the history result as JSON.
func outputHistoryJSON(cmd *cobra.Command, result HistoryResult) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(CLIResponse{
		Status: "ok",
		Data:   result,
	})
}

// outputHistoryText outputs the history result as text.
func outputHistoryText(w io.Writer, result HistoryResult, names *dict.Dictionary, verbose bool) error {
	fmt.Fprintf(w, "History for (%d, %d, %d)\n", result.Coord.X, result.Coord.Y, result.Coord.Z)
	fmt.Fprintf(w, "Final: %s\n", stateLabel(result.Final, names))
	fmt.Fprintln(w)

	if len(result.Events) == 0 {
		fmt.Fprintln(w, "  (no transactions)")
		return nil
	}

	for _, ev := range result.Events {
		formatHistoryEvent(w, ev, names, verbose)
	}
	return nil
}

// formatHistoryEvent formats a single history event for text output.
func formatHistoryEvent(w io.Writer, ev HistoryEvent, names *dict.Dictionary, verbose bool) {
	switch ev.Tx.Op.Kind {
	case txlog.OpSet:
		fmt.Fprintf(w, "  [%s] SET %s -> %s\n", ev.ID,
			stateLabel(ev.Before, names), stateLabel(ev.Tx.Op.New, names))
	case txlog.OpReplace:
		fmt.Fprintf(w, "  [%s] REPLACE %s -> %s (expected %s)\n", ev.ID,
			stateLabel(ev.Before, names), stateLabel(ev.Tx.Op.New, names),
			stateLabel(ev.Tx.Op.Expected, names))
	case txlog.OpUndo:
		fmt.Fprintf(w, "  [%s] UNDO %s (now %s)\n", ev.ID,
			ev.Tx.Op.Target.String(), stateLabel(ev.Before, names))
	}
	if verbose {
		if ev.Owner != "" {
			fmt.Fprintf(w, "       Owner: %s\n", ev.Owner)
		}
		if ev.Stamp != "" {
			fmt.Fprintf(w, "       Stamp: %s\n", ev.Stamp)
		}
	}
}

// stateLabel renders a block state, resolving names through the dictionary
// when one is loaded and it knows the block.
func stateLabel(s world.BlockState, names *dict.Dictionary) string {
	label := fmt.Sprintf("%d/%d", s.Block.Provider, s.Block.Local)
	if names != nil && names.HasBlock(s.Block) {
		namespace, name := names.ResolveName(s.Block)
		label = namespace + ":" + name
	}
	if v, ok := s.Aux.Value(); ok {
		label = fmt.Sprintf("%s aux=%d", label, v)
	}
	return label
}
