// Package talloc implements a deterministic, O(log N) small-object block
// allocator. It manages an abstract index space of N fixed-size "blocks"
// and hands out contiguous, naturally-aligned runs of 1-32 blocks; it never
// touches the bytes those blocks represent. Callers needing byte-granularity
// allocation, non-power-of-two sizes, or allocations wider than 32 blocks
// need another allocator layered on top.
//
// The core type is Member: a free-space index built from a shared leaf
// bitmap and six parallel 32-ary summary trees, one per power-of-two size
// class. Member is single-threaded by contract -- see its documentation for
// the concurrency model. Pool and Registry build ownership and naming on
// top of Member without changing that contract.
package talloc
