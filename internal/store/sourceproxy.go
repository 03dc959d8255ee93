package store

import (
	"fmt"

	"github.com/daniloab/relay/internal/selection"
	"github.com/daniloab/relay/internal/value"
)

// GetDataID computes the identity for an entity object encountered in a
// payload. It must be pure and deterministic for identical inputs. An
// empty return falls back to a deterministic client-generated identity.
type GetDataID func(entity value.Object, typeName string) DataID

// DefaultGetDataID uses the entity's server-provided "id" field when it
// carries one.
func DefaultGetDataID(entity value.Object, typeName string) DataID {
	if id, ok := entity["id"].(value.String); ok {
		return DataID(id)
	}
	return ""
}

// RecordSourceProxy owns the pool of record proxies for one transaction.
// It implements entity creation, deletion, and lookup, synthesizes the
// root record, and merges external payloads via CommitPayload.
//
// The identity-to-proxy cache is transaction-scoped: it must never be
// reused across a different (base, sink, backup) triple, since a cached
// proxy would answer from a stale sink.
type RecordSourceProxy struct {
	mutator         *Mutator
	proxies         map[DataID]*RecordProxy
	getDataID       GetDataID
	handlerProvider HandlerProvider
}

// NewRecordSourceProxy creates the proxy layer over a mutator. getDataID
// nil selects DefaultGetDataID; handlerProvider nil means any selected
// handle field aborts CommitPayload with MISSING_HANDLER.
func NewRecordSourceProxy(mutator *Mutator, getDataID GetDataID, handlerProvider HandlerProvider) *RecordSourceProxy {
	if getDataID == nil {
		getDataID = DefaultGetDataID
	}
	return &RecordSourceProxy{
		mutator:         mutator,
		proxies:         make(map[DataID]*RecordProxy),
		getDataID:       getDataID,
		handlerProvider: handlerProvider,
	}
}

// Get resolves an identity to its proxy. known is false for identities
// never fetched; a nil proxy with known=true means a tombstone. Repeated
// calls for an existent identity return the identical cached proxy.
func (sp *RecordSourceProxy) Get(id DataID) (proxy *RecordProxy, known bool) {
	if cached, ok := sp.proxies[id]; ok {
		return cached, true
	}
	switch sp.mutator.Status(id) {
	case StateExistent:
		proxy = &RecordProxy{dataID: id, mutator: sp.mutator, source: sp}
		sp.proxies[id] = proxy
		return proxy, true
	case StateNonexistent:
		return nil, true
	default:
		return nil, false
	}
}

// Root returns the proxy for the reserved root record, synthesizing the
// record (identity and type only, written to sink) when no layer knows it.
// Repeated calls return the identical cached proxy.
func (sp *RecordSourceProxy) Root() *RecordProxy {
	if proxy, known := sp.Get(RootID); known && proxy != nil {
		return proxy
	}
	// The root always conceptually exists; Status here is Unknown or a
	// tombstone, and neither blocks synthesis.
	if err := sp.mutator.Create(RootID, RootTypeName); err != nil {
		panic(fmt.Sprintf("root synthesis failed: %v", err))
	}
	proxy, _ := sp.Get(RootID)
	return proxy
}

// Create writes a fresh record for id and returns its proxy, replacing any
// stale cache entry. Fails with DUPLICATE_RECORD if the identity is
// already existent.
func (sp *RecordSourceProxy) Create(id DataID, typeName string) (*RecordProxy, error) {
	if err := sp.mutator.Create(id, typeName); err != nil {
		return nil, err
	}
	proxy := &RecordProxy{dataID: id, mutator: sp.mutator, source: sp}
	sp.proxies[id] = proxy
	return proxy, nil
}

// Delete tombstones an identity, even one never fetched, and evicts its
// cached proxy so subsequent Gets observe the deletion. Fails with
// ROOT_DELETION for the reserved root identity.
func (sp *RecordSourceProxy) Delete(id DataID) error {
	if id == RootID {
		return NewRootDeletionError()
	}
	sp.mutator.Delete(id)
	delete(sp.proxies, id)
	return nil
}

// CommitPayload merges a raw response payload into the cache, normalized
// against the operation's selection shape. Every entity object encountered
// gets its identity from the injected GetDataID function (called exactly
// once per entity object), is created if previously unknown, and has its
// selected fields written through the mutator. After a handle-annotated
// field normalizes, the registered handler's Update runs with a
// HandleFieldPayload describing the field.
func (sp *RecordSourceProxy) CommitPayload(op *selection.Operation, payload value.Object) error {
	if op == nil {
		return fmt.Errorf("commit payload: nil operation")
	}
	root := sp.Root()
	return sp.normalizeFields(root.DataID(), op.Fields, payload)
}

// normalizeFields writes one entity's selected fields. Fields absent from
// the payload are skipped, leaving prior cache state intact.
func (sp *RecordSourceProxy) normalizeFields(parentID DataID, fields []selection.Field, data value.Object) error {
	for i := range fields {
		field := &fields[i]
		raw, present := data[field.Name]
		if !present {
			continue
		}
		key := FormatStorageKey(field.Name, field.Args)

		var err error
		switch {
		case field.Kind != selection.KindLinked:
			err = sp.mutator.SetValue(parentID, key, raw)
		case field.Plural:
			err = sp.normalizePluralLink(parentID, field, key, raw)
		default:
			err = sp.normalizeSingularLink(parentID, field, key, raw)
		}
		if err != nil {
			return err
		}

		if field.Handle != nil {
			if err := sp.dispatchHandle(parentID, field, key); err != nil {
				return err
			}
		}
	}
	return nil
}

func (sp *RecordSourceProxy) normalizeSingularLink(parentID DataID, field *selection.Field, key string, raw value.Value) error {
	switch entity := raw.(type) {
	case value.Null:
		return sp.mutator.SetValue(parentID, key, value.Null{})
	case value.Object:
		id, err := sp.normalizeEntity(entity, field, GenerateClientID(parentID, key))
		if err != nil {
			return err
		}
		return sp.mutator.SetLinkedRecord(parentID, key, id)
	default:
		return &MutationError{
			Code:    ErrCodeInvalidFieldValue,
			Message: fmt.Sprintf("linked field expects an object or null, got %T", raw),
			DataID:  parentID,
			Field:   key,
		}
	}
}

func (sp *RecordSourceProxy) normalizePluralLink(parentID DataID, field *selection.Field, key string, raw value.Value) error {
	switch entities := raw.(type) {
	case value.Null:
		return sp.mutator.SetValue(parentID, key, value.Null{})
	case value.Array:
		ids := make([]*DataID, len(entities))
		for i, elem := range entities {
			switch entity := elem.(type) {
			case value.Null:
				// Explicit null list element.
			case value.Object:
				id, err := sp.normalizeEntity(entity, field, generateClientListID(parentID, key, i))
				if err != nil {
					return err
				}
				ids[i] = &id
			default:
				return &MutationError{
					Code:    ErrCodeInvalidFieldValue,
					Message: fmt.Sprintf("plural linked field expects objects or nulls, got %T at index %d", elem, i),
					DataID:  parentID,
					Field:   key,
				}
			}
		}
		return sp.mutator.SetLinkedRecords(parentID, key, ids)
	default:
		return &MutationError{
			Code:    ErrCodeInvalidFieldValue,
			Message: fmt.Sprintf("plural linked field expects an array or null, got %T", raw),
			DataID:  parentID,
			Field:   key,
		}
	}
}

// normalizeEntity resolves an entity object's identity, creates the record
// when previously unknown, and recurses into the selected child fields.
// Existing records merge: selected fields overwrite, others survive.
func (sp *RecordSourceProxy) normalizeEntity(entity value.Object, field *selection.Field, fallbackID DataID) (DataID, error) {
	typeName := field.TypeName
	if tn, ok := entity[TypeNameKey].(value.String); ok {
		typeName = string(tn)
	}

	id := sp.getDataID(entity, typeName)
	if id == "" {
		id = fallbackID
	}

	if sp.mutator.Status(id) != StateExistent {
		if err := sp.mutator.Create(id, typeName); err != nil {
			return "", err
		}
	}
	if err := sp.normalizeFields(id, field.Fields, entity); err != nil {
		return "", err
	}
	return id, nil
}

func (sp *RecordSourceProxy) dispatchHandle(parentID DataID, field *selection.Field, key string) error {
	var handler Handler
	if sp.handlerProvider != nil {
		handler = sp.handlerProvider(field.Handle.Name)
	}
	if handler == nil {
		return NewMissingHandlerError(field.Handle.Name)
	}
	handler.Update(sp, HandleFieldPayload{
		Args:      field.Args,
		DataID:    parentID,
		FieldKey:  key,
		Handle:    field.Handle.Name,
		HandleKey: FormatStorageKey(DeriveHandleKey(field.Handle.Name, field.Name), field.Args),
	})
	return nil
}
