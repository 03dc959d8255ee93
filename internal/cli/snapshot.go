package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daniloab/relay/internal/snapshot"
	"github.com/daniloab/relay/internal/value"
)

// SnapshotOptions holds flags for the snapshot subcommands.
type SnapshotOptions struct {
	*RootOptions
	DB string
}

// NewSnapshotCommand creates the snapshot command group.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect saved cache snapshots",
	}

	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "snapshot database path (required)")

	cmd.AddCommand(newSnapshotListCommand(opts))
	cmd.AddCommand(newSnapshotShowCommand(opts))

	return cmd
}

func newSnapshotListCommand(opts *SnapshotOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots",
		Long: `List every saved snapshot in creation order.

Examples:
  relay-cache snapshot list --db cache.db
  relay-cache snapshot list --db cache.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotList(opts, cmd)
		},
	}
}

func newSnapshotShowCommand(opts *SnapshotOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <snapshot-id>",
		Short: "Print a snapshot's record source",
		Long: `Print a saved snapshot's full record source as canonical JSON.
Tombstoned identities appear as null entries.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotShow(opts, args[0], cmd)
		},
	}
}

func runSnapshotList(opts *SnapshotOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	db, err := openSnapshotDB(opts, formatter)
	if err != nil {
		return err
	}
	defer db.Close()

	infos, err := db.List(cmd.Context())
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, fmt.Sprintf("list snapshots: %v", err))
	}

	if formatter.Format == "json" {
		return formatter.Success(infos)
	}

	if len(infos) == 0 {
		fmt.Fprintln(formatter.Writer, "No snapshots.")
		return nil
	}
	for _, info := range infos {
		fmt.Fprintf(formatter.Writer, "%s  %-20s  %s  %d record(s)\n", info.ID, info.Label, info.CreatedAt, info.RecordCount)
	}
	return nil
}

func runSnapshotShow(opts *SnapshotOptions, id string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	db, err := openSnapshotDB(opts, formatter)
	if err != nil {
		return err
	}
	defer db.Close()

	src, err := db.Load(cmd.Context(), id)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("snapshot %q not found", id))
		}
		return commandError(formatter, ErrCodeGeneric, fmt.Sprintf("load snapshot: %v", err))
	}

	data, err := value.MarshalCanonical(src.Serialize())
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, fmt.Sprintf("marshal snapshot: %v", err))
	}

	// Canonical JSON either way; the format flag only changes the wrapping.
	if formatter.Format == "json" {
		return formatter.Success(json.RawMessage(data))
	}
	fmt.Fprintln(formatter.Writer, string(data))
	return nil
}

func openSnapshotDB(opts *SnapshotOptions, formatter *OutputFormatter) (*snapshot.Store, error) {
	if opts.DB == "" {
		return nil, commandError(formatter, ErrCodeGeneric, "--db is required")
	}
	db, err := snapshot.Open(opts.DB)
	if err != nil {
		return nil, commandError(formatter, ErrCodeNotFound, fmt.Sprintf("open snapshot database: %v", err))
	}
	return db, nil
}
