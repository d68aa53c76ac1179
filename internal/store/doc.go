// Package store provides persistent storage for the session catalog.
//
// # Architecture
//
// The catalog is a single collection of SessionRecord entries, read fully
// and rewritten fully on every mutation. Two backends implement the Store
// interface:
//
//   - FileStore: one JSON document, atomically replaced on save
//   - SQLiteStore: modernc.org/sqlite, whole-table replace per save
//
// MockStore is the in-memory test double, with injectable save failures.
//
// # Concurrency
//
// The store is not transactional across concurrent writers. All mutation
// flows through the session registry's single control path; the backends
// only need to survive concurrent reads.
package store
