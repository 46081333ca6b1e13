package compiler

// Allocator hands out monotonically increasing numbers, one sequence per
// namespace. Generators use it for unique label suffixes and for virtual
// register ids. A single Allocator is threaded through one compilation.
type Allocator struct {
	next map[string]int
}

func NewAllocator() *Allocator {
	return &Allocator{next: make(map[string]int)}
}

// Next returns the next number in namespace ns, starting at 0.
func (a *Allocator) Next(ns string) int {
	n := a.next[ns]
	a.next[ns] = n + 1
	return n
}

// Count returns how many numbers namespace ns has handed out.
func (a *Allocator) Count(ns string) int {
	return a.next[ns]
}
