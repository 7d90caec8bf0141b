package pricechange

import (
	"container/heap"

	"github.com/shopspring/decimal"
)

// Entry is a kept price change: its absolute size and the drug description.
type Entry struct {
	Magnitude   decimal.Decimal
	Description string
	seq         uint64
}

// OfferResult describes what a Selection did with a candidate.
type OfferResult int

const (
	Inserted OfferResult = iota
	Replaced
	Duplicate
	Rejected
)

func (r OfferResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Replaced:
		return "replaced"
	case Duplicate:
		return "duplicate"
	default:
		return "rejected"
	}
}

// entryKey identifies an entry by numeric magnitude and description.
// decimal.String drops trailing zeros, so 1.50 and 1.5 share a key.
type entryKey struct {
	magnitude   string
	description string
}

func keyOf(magnitude decimal.Decimal, description string) entryKey {
	return entryKey{magnitude: magnitude.String(), description: description}
}

// entryHeap orders the smallest magnitude first. Among equal magnitudes the
// most recently offered entry sits on top, so it is the first to be evicted.
type entryHeap []Entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if c := h[i].Magnitude.Cmp(h[j].Magnitude); c != 0 {
		return c < 0
	}
	return h[i].seq > h[j].seq
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(Entry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Selection keeps the capacity largest distinct entries offered to it.
//
// A Selection accumulates until Drain is called; offering to a drained
// Selection panics. It is not safe for concurrent use.
type Selection struct {
	capacity int
	entries  entryHeap
	kept     map[entryKey]struct{}
	next     uint64
	drained  bool
}

// NewSelection returns an empty selection bounded to capacity entries.
// A negative capacity is treated as zero.
func NewSelection(capacity int) *Selection {
	if capacity < 0 {
		capacity = 0
	}
	return &Selection{
		capacity: capacity,
		entries:  make(entryHeap, 0, capacity),
		kept:     make(map[entryKey]struct{}, capacity),
	}
}

// Offer considers a candidate for the selection.
//
// Exact duplicates of a kept (magnitude, description) pair are dropped. While
// the selection has room the candidate is inserted; once full it replaces the
// current minimum only if its magnitude is strictly greater.
func (s *Selection) Offer(magnitude decimal.Decimal, description string) OfferResult {
	if s.drained {
		panic("pricechange: offer on drained selection")
	}

	key := keyOf(magnitude, description)
	if _, ok := s.kept[key]; ok {
		return Duplicate
	}

	candidate := Entry{Magnitude: magnitude, Description: description, seq: s.next}
	s.next++

	if len(s.entries) < s.capacity {
		heap.Push(&s.entries, candidate)
		s.kept[key] = struct{}{}
		return Inserted
	}

	if s.capacity == 0 || !magnitude.GreaterThan(s.entries[0].Magnitude) {
		return Rejected
	}

	evicted := s.entries[0]
	delete(s.kept, keyOf(evicted.Magnitude, evicted.Description))
	s.entries[0] = candidate
	heap.Fix(&s.entries, 0)
	s.kept[key] = struct{}{}
	return Replaced
}

// Min returns the smallest kept entry, the next one to be evicted.
func (s *Selection) Min() (Entry, bool) {
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	return s.entries[0], true
}

// Len returns the number of kept entries.
func (s *Selection) Len() int { return len(s.entries) }

// Cap returns the maximum number of entries the selection keeps.
func (s *Selection) Cap() int { return s.capacity }

// Drain empties the selection and returns its entries largest first.
// Ties keep the order in which they were offered.
func (s *Selection) Drain() []Entry {
	s.drained = true

	out := make([]Entry, len(s.entries))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&s.entries).(Entry)
	}
	s.kept = nil
	return out
}
