// Package store implements the normalized record cache's mutation engine:
// the layered record source, the transactional mutator, and the proxy
// layer that gives callers typed access to individual entities.
//
// Entities reference each other only by opaque string identity (DataID),
// never by direct linkage, so a record is owned by whichever source holds
// it and cyclic ownership cannot arise.
//
// # Transaction triple
//
// A transaction is one Mutator plus one RecordSourceProxy over a
// (base, sink, backup) triple:
//
//   - base: pristine read-only snapshot, never mutated
//   - sink: this transaction's writes (created, deleted, mutated records)
//   - backup: undo log holding enough state to reverse every sink entry
//
// Backup grows lazily, per field touched; a record replaced or deleted
// wholesale is cloned into backup once. Publishing sink or rolling back
// via backup happens outside this package: the caller consumes the triple
// after exactly one sequence of mutations.
//
// # Field addressing
//
// Fields are addressed by storage key: the field name plus a canonical,
// name-sorted serialization of its arguments, so the same logical
// field+arguments always hit the same slot. Client-only records created
// under a field derive their identity deterministically from
// (parent identity, storage key), which lets an unlinked record be
// reattached later instead of duplicated.
//
// Everything here is single-threaded and synchronous; composing multiple
// concurrent transactions is the publish layer's responsibility.
package store
