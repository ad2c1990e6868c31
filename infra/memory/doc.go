// Package memory provides the low-level primitives for safe object reuse
// under lock-free concurrency: a typed pool, a lock-free retire stack, and
// an epoch registry used to decide when a retired object can no longer be
// reachable from any in-flight reader or submitter.
//
// The memory package is dependency-free; domain types participate through
// the Reclaimable interface.
package memory
