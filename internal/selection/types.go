// Package selection defines operation descriptors: the selection shape a
// payload is normalized against. Descriptors are plain data compiled from
// CUE definitions or built programmatically; evaluating which fields a
// query actually needs happens outside the cache core.
package selection

import "github.com/daniloab/relay/internal/value"

// FieldKind distinguishes leaf fields from fields linking to entities.
type FieldKind string

const (
	// KindScalar marks a leaf field whose payload value is stored verbatim.
	KindScalar FieldKind = "scalar"

	// KindLinked marks a field whose payload value is an entity object
	// (or a list of them) normalized into its own record.
	KindLinked FieldKind = "linked"
)

// Operation describes one request's selection shape. Payload normalization
// walks Fields against the raw response, rooted at the reserved root
// record.
type Operation struct {
	// Name identifies the operation, for diagnostics and golden traces.
	Name string

	// Fields are the root-level selections.
	Fields []Field
}

// Field describes one selected field.
type Field struct {
	// Name is the field's response key and the base of its storage key.
	Name string

	// Args are the literal argument values the field was requested with.
	// Variables are resolved before a descriptor reaches the cache.
	Args value.Object

	// Kind is KindScalar or KindLinked. An empty kind means scalar.
	Kind FieldKind

	// Plural marks a linked field carrying a list of entities.
	Plural bool

	// TypeName is the concrete type for linked entities, used when the
	// payload object carries no __typename field.
	TypeName string

	// Handle, when set, names a client-side handler invoked after this
	// field normalizes.
	Handle *Handle

	// Fields are the child selections of a linked field.
	Fields []Field
}

// Handle annotates a field whose final value is computed client-side by a
// named handler rather than taken verbatim from the response.
type Handle struct {
	// Name is the handle name resolved through the handler provider.
	Name string
}
