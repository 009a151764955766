// Package mem provides the storage allocators behind owned strings.
//
// Every allocator follows C realloc rules with one addition: a failed Realloc
// never releases the block it was given. Three implementations exist:
//
//   - Mmap: off-heap pages from modernc.org/memory, explicit Free required
//   - GoHeap: ordinary Go slices
//   - Budget and Faults: wrappers adding a byte ceiling or injected failures
package mem
