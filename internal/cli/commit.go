package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daniloab/relay/internal/snapshot"
	"github.com/daniloab/relay/internal/store"
	"github.com/daniloab/relay/internal/value"
)

// CommitOptions holds flags for the commit command.
type CommitOptions struct {
	*RootOptions
	Base string // serialized record source JSON file
	DB   string // snapshot database path
	From string // snapshot id to use as base
	Save string // label: persist the merged result as a new snapshot
}

// CommitResult is the JSON payload reported after a commit.
type CommitResult struct {
	Operation  string          `json:"operation"`
	Sink       json.RawMessage `json:"sink"`
	Backup     json.RawMessage `json:"backup"`
	SnapshotID string          `json:"snapshot_id,omitempty"`
}

// NewCommitCommand creates the commit command.
func NewCommitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CommitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "commit <selection.cue> <payload.json>",
		Short: "Normalize a payload into the cache",
		Long: `Normalize a response payload against a selection and report the
resulting sink and backup.

The base source comes from --base (a serialized record source JSON file)
or from a saved snapshot (--db with --from). Without either, the commit
runs over an empty base. With --save, the merged result (base with the
sink applied) is persisted as a new snapshot.

Exit codes:
  0 - Commit succeeded
  1 - Normalization failed (payload violates the selection)
  2 - Command error (missing files, bad inputs)

Examples:
  relay-cache commit query.cue response.json
  relay-cache commit query.cue response.json --base cache.json
  relay-cache commit query.cue response.json --db cache.db --from 0190... --save after-login`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommit(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Base, "base", "", "serialized record source JSON file to use as base")
	cmd.Flags().StringVar(&opts.DB, "db", "", "snapshot database path")
	cmd.Flags().StringVar(&opts.From, "from", "", "snapshot id to load as base (requires --db)")
	cmd.Flags().StringVar(&opts.Save, "save", "", "persist the merged result as a snapshot with this label (requires --db)")

	return cmd
}

func runCommit(opts *CommitOptions, selectionPath, payloadPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Base != "" && opts.From != "" {
		return commandError(formatter, ErrCodeGeneric, "--base and --from are mutually exclusive")
	}
	if (opts.From != "" || opts.Save != "") && opts.DB == "" {
		return commandError(formatter, ErrCodeGeneric, "--from and --save require --db")
	}

	op, err := LoadOperation(selectionPath)
	if err != nil {
		return commandLoadError(formatter, err)
	}
	payload, err := LoadPayloadFile(payloadPath)
	if err != nil {
		return commandLoadError(formatter, err)
	}

	var db *snapshot.Store
	if opts.DB != "" {
		db, err = snapshot.Open(opts.DB)
		if err != nil {
			return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("open snapshot database: %v", err))
		}
		defer db.Close()
	}

	base, err := loadBase(opts, db, cmd)
	if err != nil {
		return commandLoadError(formatter, err)
	}

	formatter.VerboseLog("Committing %q over %d base record(s)", op.Name, base.Size())

	sink := store.NewMapRecordSource()
	backup := store.NewMapRecordSource()
	mutator := store.NewMutator(base, sink, backup)
	proxy := store.NewRecordSourceProxy(mutator, nil, nil)

	if err := proxy.CommitPayload(op, payload); err != nil {
		_ = formatter.Error(mutationErrorCode(err), err.Error(), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("commit failed: %v", err))
	}

	result := CommitResult{Operation: op.Name}
	if result.Sink, err = marshalSource(sink); err != nil {
		return commandError(formatter, ErrCodeGeneric, err.Error())
	}
	if result.Backup, err = marshalSource(backup); err != nil {
		return commandError(formatter, ErrCodeGeneric, err.Error())
	}

	if opts.Save != "" {
		merged := applySink(base, sink)
		id, err := db.Save(cmd.Context(), opts.Save, merged)
		if err != nil {
			return commandError(formatter, ErrCodeGeneric, fmt.Sprintf("save snapshot: %v", err))
		}
		result.SnapshotID = id
		formatter.VerboseLog("Saved snapshot %s (%q)", id, opts.Save)
	}

	return outputCommitResult(formatter, result, sink, backup)
}

// loadBase resolves the base source from flags: explicit file, saved
// snapshot, or empty.
func loadBase(opts *CommitOptions, db *snapshot.Store, cmd *cobra.Command) (*store.MapRecordSource, error) {
	switch {
	case opts.Base != "":
		return LoadRecordSourceFile(opts.Base)
	case opts.From != "":
		src, err := db.Load(cmd.Context(), opts.From)
		if err != nil {
			if errors.Is(err, snapshot.ErrNotFound) {
				return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("snapshot %q not found", opts.From)}
			}
			return nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
		}
		return src, nil
	default:
		return store.NewMapRecordSource(), nil
	}
}

// applySink overlays the sink onto a copy of the base, producing the
// published view a real store would expose after this transaction.
func applySink(base *store.MapRecordSource, sink *store.MapRecordSource) store.RecordSource {
	merged := base.Clone()
	for _, id := range sink.RecordIDs() {
		rec, _ := sink.Get(id)
		if rec == nil {
			merged.Delete(id)
		} else {
			merged.Set(id, rec)
		}
	}
	return merged
}

// mutationErrorCode maps mutation failures to stable CLI error codes.
func mutationErrorCode(err error) string {
	var mutErr *store.MutationError
	if errors.As(err, &mutErr) {
		return string(mutErr.Code)
	}
	return ErrCodeGeneric
}

func marshalSource(src *store.MapRecordSource) (json.RawMessage, error) {
	data, err := value.MarshalCanonical(src.Serialize())
	if err != nil {
		return nil, fmt.Errorf("marshal source: %w", err)
	}
	return json.RawMessage(data), nil
}

func outputCommitResult(formatter *OutputFormatter, result CommitResult, sink, backup *store.MapRecordSource) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Committed %q\n", result.Operation)
	fmt.Fprintf(w, "  sink:   %d record(s)\n", sink.Size())
	fmt.Fprintf(w, "  backup: %d record(s)\n", backup.Size())
	if result.SnapshotID != "" {
		fmt.Fprintf(w, "  snapshot: %s\n", result.SnapshotID)
	}
	if formatter.Verbose {
		fmt.Fprintf(w, "  sink contents: %s\n", result.Sink)
		fmt.Fprintf(w, "  backup contents: %s\n", result.Backup)
	}
	return nil
}

func commandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

func commandLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return commandError(formatter, loadErr.Code, loadErr.Message)
	}
	return commandError(formatter, ErrCodeGeneric, err.Error())
}
