package store

import "github.com/daniloab/relay/internal/value"

// HandleFieldPayload describes which field, identity, and handle triggered
// a handler during payload normalization.
type HandleFieldPayload struct {
	// Args are the field's literal arguments from the selection.
	Args value.Object

	// DataID identifies the record the handle field was selected on.
	DataID DataID

	// FieldKey is the storage key of the normalized field.
	FieldKey string

	// Handle is the handle name the handler was registered under.
	Handle string

	// HandleKey is the derived client-only storage key for the handler's
	// output.
	HandleKey string
}

// Handler computes a client-side field from normalized payload data.
// Update may read and write further fields through the proxy as a side
// effect; its internal algorithm is its own concern.
type Handler interface {
	Update(store *RecordSourceProxy, payload HandleFieldPayload)
}

// HandlerProvider resolves a handle name to its implementation. Returning
// nil means no handler is registered, which aborts the enclosing
// CommitPayload with MISSING_HANDLER.
type HandlerProvider func(handle string) Handler

// DeriveHandleKey derives the client-only field name a handler writes its
// output under, namespaced so it can never collide with a server field.
func DeriveHandleKey(handle, fieldName string) string {
	return "__" + fieldName + "_" + handle
}
