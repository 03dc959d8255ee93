package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/token"

	"github.com/daniloab/relay/internal/selection"
	"github.com/daniloab/relay/internal/store"
	"github.com/daniloab/relay/internal/value"
)

// LoadError represents an error that occurred while loading CLI inputs.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeScanError  = "E002" // Directory scan error
	ErrCodeNoFiles    = "E003" // No CUE files found
	ErrCodeLoadFailed = "E004" // Selection compile failed
	ErrCodeNotFound   = "E005" // Path not found
	ErrCodeBadJSON    = "E006" // JSON parse error
	ErrCodeBadSource  = "E007" // Record source parse error

	// Selection validation errors
	ErrCodeMissingName   = "E101" // Missing operation or field name
	ErrCodeMissingFields = "E102" // Linked field selects no children
	ErrCodeBadSelection  = "E103" // Structural selection error
	ErrCodeBadArgument   = "E104" // Non-concrete argument value
)

// LoadOperation loads and compiles a selection CUE file, converting
// compile failures into coded LoadErrors.
func LoadOperation(path string) (*selection.Operation, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("selection file not found: %s", path)}
	}

	op, err := selection.Load(path)
	if err != nil {
		return nil, convertSelectionError(err)
	}
	return op, nil
}

// FindSelectionFiles walks the directory and returns all .cue file paths.
func FindSelectionFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// LoadRecordSourceFile reads a serialized record source from a JSON file.
func LoadRecordSourceFile(path string) (*store.MapRecordSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("record source file: %v", err)}
	}

	parsed, err := value.Unmarshal(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeBadJSON, Message: fmt.Sprintf("record source file %s: %v", path, err)}
	}
	obj, ok := parsed.(value.Object)
	if !ok {
		return nil, &LoadError{Code: ErrCodeBadSource, Message: fmt.Sprintf("record source file %s: top level must be an object", path)}
	}

	src, err := store.ParseRecordSource(obj)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeBadSource, Message: fmt.Sprintf("record source file %s: %v", path, err)}
	}
	return src, nil
}

// LoadPayloadFile reads a response payload from a JSON file.
func LoadPayloadFile(path string) (value.Object, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("payload file: %v", err)}
	}

	parsed, err := value.Unmarshal(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeBadJSON, Message: fmt.Sprintf("payload file %s: %v", path, err)}
	}
	obj, ok := parsed.(value.Object)
	if !ok {
		return nil, &LoadError{Code: ErrCodeBadJSON, Message: fmt.Sprintf("payload file %s: top level must be an object", path)}
	}
	return obj, nil
}

// convertSelectionError converts a selection error to a coded LoadError,
// preserving source position when the compiler provides one.
func convertSelectionError(err error) *LoadError {
	var compileErr *selection.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}

	var validationErr *selection.ValidationError
	if errors.As(err, &validationErr) {
		return &LoadError{
			Code:    ErrCodeBadSelection,
			Message: validationErr.Error(),
		}
	}

	return &LoadError{
		Code:    ErrCodeLoadFailed,
		Message: err.Error(),
	}
}

// MapFieldToErrorCode maps a selection compile error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "name", "operation":
		return ErrCodeMissingName
	case "fields":
		return ErrCodeMissingFields
	default:
		if len(field) >= 5 && field[:5] == "args." {
			return ErrCodeBadArgument
		}
		return ErrCodeLoadFailed
	}
}
