package chapter

// Resolve returns the first UI chapter whose extended range
// [start, end+hysteresis] contains pos, or nil.
func Resolve(chapters []Chapter, pos, hysteresis float64) *Chapter {
	for i := range chapters {
		c := &chapters[i]
		if !c.HasUI() {
			continue
		}
		if c.Contains(pos, hysteresis) {
			return c
		}
	}
	return nil
}

// Resolver tracks the active chapter across frames
type Resolver struct {
	table      *Table
	hysteresis float64
	active     *Chapter
}

// NewResolver creates a resolver over a static table
func NewResolver(table *Table, hysteresis float64) *Resolver {
	return &Resolver{table: table, hysteresis: hysteresis}
}

// Update recomputes the active chapter for pos and reports whether it changed
func (r *Resolver) Update(pos float64) (*Chapter, bool) {
	next := Resolve(r.table.Chapters, pos, r.hysteresis)
	changed := next != r.active
	r.active = next
	return next, changed
}

// Active returns the current chapter or nil
func (r *Resolver) Active() *Chapter {
	return r.active
}

// Clear drops the active chapter
func (r *Resolver) Clear() {
	r.active = nil
}
