// Package native is the in-process ANN engine behind the typed facade.
//
// Its surface follows the shape of a C library interface: an opaque handle,
// vectors passed as raw bytes tagged with a ScalarKind, callbacks passed as
// (function, state) pairs, and failures reported as *Error values carrying a
// diagnostic message. The graph is a hierarchical navigable small world
// (HNSW) over a contiguous vector arena; removed slots are tombstoned in a
// roaring bitmap and skipped during traversal.
//
// A handle is safe for concurrent use. Add, Remove, Rename and the other
// mutators take an exclusive lock; searches share a read lock.
package native
