package selection

import "fmt"

// ValidationError describes a structural problem in an operation
// descriptor, with a dotted path to the offending field.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// Validate checks an operation descriptor for structural soundness:
//
//  1. The operation and every field carry a name
//  2. Linked fields select at least one child field
//  3. Scalar fields select none
//  4. Plural only applies to linked fields
//  5. Handles carry a handle name
//  6. Sibling fields produce distinct storage keys
//
// Validate is a pure function with no side effects.
func Validate(op *Operation) error {
	if op == nil {
		return &ValidationError{Message: "nil operation"}
	}
	if op.Name == "" {
		return &ValidationError{Message: "operation name is required"}
	}
	return validateFields(op.Name, op.Fields)
}

func validateFields(path string, fields []Field) error {
	seen := make(map[string]bool, len(fields))
	for i := range fields {
		f := &fields[i]
		fieldPath := fmt.Sprintf("%s.%s", path, f.Name)
		if f.Name == "" {
			return &ValidationError{Path: path, Message: fmt.Sprintf("field %d has no name", i)}
		}

		switch f.Kind {
		case KindLinked:
			if len(f.Fields) == 0 {
				return &ValidationError{Path: fieldPath, Message: "linked field selects no child fields"}
			}
		case KindScalar, "":
			if len(f.Fields) > 0 {
				return &ValidationError{Path: fieldPath, Message: "scalar field cannot select child fields"}
			}
			if f.Plural {
				return &ValidationError{Path: fieldPath, Message: "plural only applies to linked fields"}
			}
		default:
			return &ValidationError{Path: fieldPath, Message: fmt.Sprintf("unknown field kind %q", f.Kind)}
		}

		if f.Handle != nil && f.Handle.Name == "" {
			return &ValidationError{Path: fieldPath, Message: "handle name is required"}
		}

		// Distinctness is on the derived storage key, not the bare name:
		// the same field selected with different arguments is legal.
		key := storageKeyForValidation(f)
		if seen[key] {
			return &ValidationError{Path: fieldPath, Message: fmt.Sprintf("duplicate selection %q", key)}
		}
		seen[key] = true

		if err := validateFields(fieldPath, f.Fields); err != nil {
			return err
		}
	}
	return nil
}

// storageKeyForValidation approximates the storage key for duplicate
// detection without depending on the store package.
func storageKeyForValidation(f *Field) string {
	if len(f.Args) == 0 {
		return f.Name
	}
	key := f.Name + "("
	for i, k := range f.Args.SortedKeys() {
		if i > 0 {
			key += ","
		}
		key += k + ":" + fmt.Sprintf("%v", f.Args[k])
	}
	return key + ")"
}
