package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultVariant is stored when an item is added without a variant.
const DefaultVariant = "Single"

// Batch is a purchasing lot. A nil FinalizedAt means the batch is open.
type Batch struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	CreatedAt   time.Time  `json:"createdAt"`
	FinalizedAt *time.Time `json:"finalizedAt,omitempty"`
	Items       ItemSet    `json:"items"`
	// Revision is bumped by the store on every update and backs conditional writes.
	Revision int64 `json:"revision"`
}

// IsFinalized reports whether the batch has been closed.
func (b Batch) IsFinalized() bool {
	return b.FinalizedAt != nil
}

// Clone returns a deep copy safe to mutate without touching the receiver.
func (b Batch) Clone() Batch {
	out := b
	if b.FinalizedAt != nil {
		finalized := *b.FinalizedAt
		out.FinalizedAt = &finalized
	}
	out.Items = b.Items.Clone()
	return out
}

// TotalInitialStock sums the initial stock across every item.
func (b Batch) TotalInitialStock() int {
	total := 0
	for _, item := range b.Items.Ordered() {
		total += item.InitialStock
	}
	return total
}

// TotalCurrentStock sums the remaining stock across every item.
func (b Batch) TotalCurrentStock() int {
	total := 0
	for _, item := range b.Items.Ordered() {
		total += item.CurrentStock
	}
	return total
}

// BatchDraft carries the fields required to create a batch.
type BatchDraft struct {
	Name      string
	CreatedAt time.Time
}

// BatchPatch is a partial batch update. Nil fields are left untouched.
type BatchPatch struct {
	Items *ItemSet
	// FinalizedAt sets the finalization marker; ClearFinalizedAt removes it.
	FinalizedAt      *time.Time
	ClearFinalizedAt bool
	// ExpectedRevision makes the write conditional when positive.
	ExpectedRevision int64
}

// Item is one product/variant line inside a batch.
type Item struct {
	ID           string          `json:"id"`
	Product      string          `json:"product"`
	Variant      string          `json:"variant"`
	CostPerUnit  decimal.Decimal `json:"costPerUnit"`
	InitialStock int             `json:"initialStock"`
	CurrentStock int             `json:"currentStock"`
}

// ItemDraft is the caller input for a new item.
type ItemDraft struct {
	Product      string          `json:"product"`
	Variant      string          `json:"variant"`
	CostPerUnit  decimal.Decimal `json:"costPerUnit"`
	InitialStock int             `json:"initialStock"`
}

// ItemSet keys items by id while remembering insertion order for display.
// The zero value is an empty set ready to use.
type ItemSet struct {
	order []string
	byID  map[string]Item
}

// NewItemSet builds a set from items, later duplicates replacing earlier ones.
func NewItemSet(items ...Item) ItemSet {
	var s ItemSet
	for _, item := range items {
		s.Put(item)
	}
	return s
}

// Len returns the number of items.
func (s ItemSet) Len() int {
	return len(s.order)
}

// Get looks an item up by id.
func (s ItemSet) Get(id string) (Item, bool) {
	item, ok := s.byID[id]
	return item, ok
}

// Put inserts the item, or replaces it in place when the id already exists.
func (s *ItemSet) Put(item Item) {
	if s.byID == nil {
		s.byID = make(map[string]Item)
	}
	if _, exists := s.byID[item.ID]; !exists {
		s.order = append(s.order, item.ID)
	}
	s.byID[item.ID] = item
}

// Remove deletes the item and reports whether it was present.
func (s *ItemSet) Remove(id string) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Ordered returns the items in insertion order.
func (s ItemSet) Ordered() []Item {
	out := make([]Item, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Clone copies the set.
func (s ItemSet) Clone() ItemSet {
	return NewItemSet(s.Ordered()...)
}

// MarshalJSON renders the set as an ordered array.
func (s ItemSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Ordered())
}

// UnmarshalJSON accepts an array of items.
func (s *ItemSet) UnmarshalJSON(data []byte) error {
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewItemSet(items...)
	return nil
}
