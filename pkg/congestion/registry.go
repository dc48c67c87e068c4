package congestion

// ClassCount is the number of distinct track ids seen for one class.
type ClassCount struct {
	ClassName string `json:"class_name"`
	Count     int    `json:"count"`
}

// UniqueRegistry accumulates, per class name, every track id ever observed.
// Entries are never removed.
type UniqueRegistry struct {
	ids   map[string]map[int]struct{}
	order []string //class names in first-seen order
	total int
}

// NewUniqueRegistry returns an empty registry.
func NewUniqueRegistry() *UniqueRegistry {
	return &UniqueRegistry{
		ids:   make(map[string]map[int]struct{}),
		order: make([]string, 0),
	}
}

// Record adds id under className. Recording the same pair twice is a no-op.
func (r *UniqueRegistry) Record(className string, id int) {
	set, ok := r.ids[className]
	if !ok {
		set = make(map[int]struct{})
		r.ids[className] = set
		r.order = append(r.order, className)
	}

	if _, seen := set[id]; seen {
		return
	}
	set[id] = struct{}{}
	r.total++
}

// Total returns the sum of distinct ids over all classes.
func (r *UniqueRegistry) Total() int {
	return r.total
}

// PerClassCounts returns the distinct id count of every class, ordered by the
// first time each class was recorded.
func (r *UniqueRegistry) PerClassCounts() []ClassCount {
	counts := make([]ClassCount, 0, len(r.order))
	for _, name := range r.order {
		counts = append(counts, ClassCount{ClassName: name, Count: len(r.ids[name])})
	}

	return counts
}
