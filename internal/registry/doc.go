// Package registry provides the process-wide cache of loaded contracts.
//
// The Registry keeps two logically disjoint namespaces:
//
//   - module-private units, one map per loaded module, plus a reverse index
//     from unit name to owning module and an index of each module's entry unit;
//   - the common library, a flat map of units shared by every module and
//     populated once from a fixed directory.
//
// A qualified unit name is defined at most once: the first registration is
// authoritative and later definitions are skipped. Lookups never merge the two
// namespaces; they consult the module-private store first and fall back to the
// common library. Nothing is ever evicted.
//
// The Registry is owned by whoever constructs it (normally the App) and is
// safe for concurrent use. Loading a module is load-once: concurrent first
// callers for the same name share a single scan.
package registry
