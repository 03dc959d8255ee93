package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// ValidationIssue is one problem found in a selection file.
type ValidationIssue struct {
	File    string `json:"file"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Files  int               `json:"files"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <selections-dir>",
		Short: "Validate selection files without committing anything",
		Long: `Validate selection CUE files.

Compiles every .cue file in the directory and runs structural checks:
field names, linked/scalar consistency, handle names, and sibling
storage-key distinctness. Nothing is written to any store.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("selections directory not found: %s", dir))
	}
	if err != nil {
		return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("error accessing selections directory: %v", err))
	}
	if !info.IsDir() {
		return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("not a directory: %s", dir))
	}

	files, err := FindSelectionFiles(dir)
	if err != nil {
		return outputValidateError(formatter, ErrCodeScanError, fmt.Sprintf("error scanning directory: %v", err))
	}
	if len(files) == 0 {
		return outputValidateError(formatter, ErrCodeNoFiles, fmt.Sprintf("no CUE files found in %s", dir))
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", len(files), dir)

	var issues []ValidationIssue
	for _, file := range files {
		formatter.VerboseLog("Validating %s", file)

		op, err := LoadOperation(file)
		if err != nil {
			issues = append(issues, toIssue(file, err))
			continue
		}
		formatter.VerboseLog("  operation %q: %d root field(s)", op.Name, len(op.Fields))
	}

	if len(issues) > 0 {
		return outputValidationIssues(formatter, len(files), issues)
	}

	return outputValidateSuccess(formatter, len(files))
}

// toIssue converts a load error to a reportable issue.
func toIssue(file string, err error) ValidationIssue {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		issue := ValidationIssue{
			File:    filepath.Base(file),
			Code:    loadErr.Code,
			Message: loadErr.Message,
		}
		if loadErr.Pos.IsValid() {
			issue.Line = loadErr.Pos.Line()
		}
		return issue
	}
	return ValidationIssue{
		File:    filepath.Base(file),
		Code:    ErrCodeGeneric,
		Message: err.Error(),
	}
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, files int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Files: files})
	}

	fmt.Fprintf(formatter.Writer, "✓ %d selection file(s) valid\n", files)
	return nil
}

// outputValidateError outputs a single command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	// Missing inputs are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationIssues outputs validation failures.
func outputValidationIssues(formatter *OutputFormatter, files int, issues []ValidationIssue) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:  false,
			Files:  files,
			Errors: issues,
		}

		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    issues[0].Code,
				Message: issues[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range issues {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s:%d\n", issue.File, issue.Line)
		} else {
			fmt.Fprintln(formatter.Writer, issue.File)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
}
