package selection

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/daniloab/relay/internal/value"
)

// Load reads a CUE file and compiles the operation descriptor under its
// top-level "operation" field, e.g.:
//
//	operation: {
//		name: "UserQuery"
//		fields: [{
//			name: "me"
//			type: "User"
//			fields: [
//				{name: "id"},
//				{name: "address", args: {location: "WORK"}},
//				{name: "friends", plural: true, type: "User", handle: "connection", fields: [{name: "id"}]},
//			]
//		}]
//	}
func Load(path string) (*Operation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load selection: %w", err)
	}

	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	opVal := v.LookupPath(cue.ParsePath("operation"))
	if !opVal.Exists() {
		return nil, &CompileError{
			Field:   "operation",
			Message: "top-level operation is required",
			Pos:     v.Pos(),
		}
	}
	return Compile(opVal)
}

// Compile parses a CUE value into an Operation and validates it.
// The CUE value should be the operation struct itself.
func Compile(v cue.Value) (*Operation, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	op := &Operation{}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &CompileError{
			Field:   "name",
			Message: "operation name is required",
			Pos:     v.Pos(),
		}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	op.Name = name

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{
			Field:   "fields",
			Message: "at least one field is required",
			Pos:     v.Pos(),
		}
	}
	op.Fields, err = compileFields(fieldsVal)
	if err != nil {
		return nil, err
	}

	if err := Validate(op); err != nil {
		return nil, err
	}
	return op, nil
}

// compileFields parses a CUE list of field definitions.
func compileFields(v cue.Value) ([]Field, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var fields []Field
	for iter.Next() {
		field, err := compileField(iter.Value())
		if err != nil {
			return nil, err
		}
		fields = append(fields, *field)
	}
	return fields, nil
}

// compileField parses a single field definition. A field with child
// selections is linked; one without is scalar.
func compileField(v cue.Value) (*Field, error) {
	field := &Field{Kind: KindScalar}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &CompileError{
			Field:   "name",
			Message: "field name is required",
			Pos:     v.Pos(),
		}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	field.Name = name

	argsVal := v.LookupPath(cue.ParsePath("args"))
	if argsVal.Exists() {
		args, err := compileArgs(argsVal)
		if err != nil {
			return nil, err
		}
		field.Args = args
	}

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if typeVal.Exists() {
		typeName, err := typeVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		field.TypeName = typeName
	}

	pluralVal := v.LookupPath(cue.ParsePath("plural"))
	if pluralVal.Exists() {
		plural, err := pluralVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		field.Plural = plural
	}

	handleVal := v.LookupPath(cue.ParsePath("handle"))
	if handleVal.Exists() {
		handle, err := handleVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		field.Handle = &Handle{Name: handle}
	}

	childrenVal := v.LookupPath(cue.ParsePath("fields"))
	if childrenVal.Exists() {
		children, err := compileFields(childrenVal)
		if err != nil {
			return nil, err
		}
		field.Fields = children
		field.Kind = KindLinked
	}

	return field, nil
}

// compileArgs converts a CUE struct of literal argument values.
func compileArgs(v cue.Value) (value.Object, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	args := value.Object{}
	for iter.Next() {
		arg, err := compileValue(iter.Value())
		if err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("args.%s", iter.Label()),
				Message: err.Error(),
				Pos:     iter.Value().Pos(),
			}
		}
		args[iter.Label()] = arg
	}
	return args, nil
}

// compileValue converts a concrete CUE value to the cache's value model.
func compileValue(v cue.Value) (value.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		return value.Null{}, nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, err
		}
		return value.String(s), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, err
		}
		return value.Int(n), nil
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return value.Float(f), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, err
		}
		return value.Bool(b), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, err
		}
		var arr value.Array
		for iter.Next() {
			elem, err := compileValue(iter.Value())
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, err
		}
		obj := value.Object{}
		for iter.Next() {
			elem, err := compileValue(iter.Value())
			if err != nil {
				return nil, err
			}
			obj[iter.Label()] = elem
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("argument values must be concrete, got kind %v", v.Kind())
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
