package filter

// SortOrder orders search results by arrival.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// Filter is an ordered set of conditions combined with AND, plus optional
// ordering and paging. Limit and Offset of zero mean unset.
type Filter struct {
	conditions []Condition

	Order  SortOrder
	Limit  int
	Offset int
}

func NewFilter() *Filter {
	return &Filter{}
}

// Where validates the condition and appends it.
func (f *Filter) Where(key Criterion, value any) error {
	if err := Check(key, value); err != nil {
		return err
	}
	f.conditions = append(f.conditions, Condition{Key: key, Value: value})
	return nil
}

// AddCondition appends a condition without validating it.
func (f *Filter) AddCondition(key Criterion, value any) *Filter {
	f.conditions = append(f.conditions, Condition{Key: key, Value: value})
	return f
}

// Conditions returns a copy of the conditions in insertion order.
func (f *Filter) Conditions() []Condition {
	out := make([]Condition, len(f.conditions))
	copy(out, f.conditions)
	return out
}

// Clone returns an independent copy of f.
func (f *Filter) Clone() *Filter {
	c := *f
	c.conditions = f.Conditions()
	return &c
}

// Compile renders the filter's conditions with the default compiler.
func (f *Filter) Compile() (string, error) {
	return Compile(f.conditions)
}

// Apply orders and pages uids, which must be in arrival order.
func (f *Filter) Apply(uids []uint32) []uint32 {
	out := make([]uint32, len(uids))
	copy(out, uids)

	if f.Order == Descending {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []uint32{}
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out
}
