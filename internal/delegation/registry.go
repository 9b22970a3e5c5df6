package delegation

// Registry is the run-scoped store of account records. It keeps insertion
// order so iteration is deterministic. It is not safe for concurrent writes.
type Registry struct {
	order        []string
	records      map[string]*AccountRecord
	unresolvable map[string]error
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		records:      make(map[string]*AccountRecord),
		unresolvable: make(map[string]error),
	}
}

// GetOrCreate returns the record for id, creating an empty one on first use.
func (r *Registry) GetOrCreate(id string) *AccountRecord {
	if rec, ok := r.records[id]; ok {
		return rec
	}
	rec := &AccountRecord{ID: id}
	r.records[id] = rec
	r.order = append(r.order, id)
	return rec
}

// Get returns the record for id without creating it.
func (r *Registry) Get(id string) (*AccountRecord, bool) {
	rec, ok := r.records[id]
	return rec, ok
}

func (r *Registry) Exists(id string) bool {
	_, ok := r.records[id]
	return ok
}

// All returns records in insertion order.
func (r *Registry) All() []*AccountRecord {
	out := make([]*AccountRecord, len(r.order))
	for i, id := range r.order {
		out[i] = r.records[id]
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.order)
}

// MarkUnresolvable records that id could not be fetched.
func (r *Registry) MarkUnresolvable(id string, err error) {
	r.unresolvable[id] = err
}

// Unresolvable returns why id failed to resolve, nil if it did not fail.
func (r *Registry) Unresolvable(id string) error {
	return r.unresolvable[id]
}
