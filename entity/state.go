package entity

import "sort"

// NavValue is a resolved navigation cache entry, tagged by cardinality.
// For a single-valued property Entity holds the related instance (nil when
// the relation resolved to none); for a collection-valued property
// Entities holds the related instances in payload order.
type NavValue struct {
	Collection bool
	Entity     *Entity
	Entities   []*Entity
}

// State is the mutable companion of an entity instance. It holds the
// current field values, the set of fields changed since the last clean
// baseline, and the cache of resolved navigation data. Every entity owns
// exactly one State, created at construction and never replaced; the
// entity stores nothing itself.
//
// State is not safe for concurrent use; callers sharing an instance across
// goroutines must serialize access themselves.
type State struct {
	owner  *Entity
	values map[string]any
	dirty  map[string]struct{}
	nav    map[string]NavValue
}

// newState allocates the companion for e with every declared value
// property present (and nil) in the value table.
func newState(e *Entity) *State {
	s := &State{
		owner:  e,
		values: make(map[string]any, len(e.typ.valueProps)),
		dirty:  make(map[string]struct{}),
		nav:    make(map[string]NavValue),
	}
	for _, p := range e.typ.valueProps {
		s.values[p.Name()] = nil
	}
	return s
}

// Owner returns the entity instance this state serves.
func (s *State) Owner() *Entity { return s.owner }

// Value returns the current value of the named field. The second result is
// false when the name is not a declared value property.
func (s *State) Value(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Values returns a copy of the current field values keyed by wire name.
func (s *State) Values() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// setBaseline stores a hydration-time value without marking it dirty.
// Hydration represents the state as last known from the service, not a
// local edit.
func (s *State) setBaseline(name string, value any) {
	s.values[name] = value
}

// SetValue stores a new field value and marks the field dirty. The caller
// is responsible for validating the name against the declared properties.
func (s *State) SetValue(name string, value any) {
	s.values[name] = value
	s.dirty[name] = struct{}{}
}

// Dirty returns the wire names of all fields changed since the last clean
// baseline, sorted for deterministic iteration.
func (s *State) Dirty() []string {
	out := make([]string, 0, len(s.dirty))
	for name := range s.dirty {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// IsDirty reports whether the named field has changed since the last
// clean baseline.
func (s *State) IsDirty(name string) bool {
	_, ok := s.dirty[name]
	return ok
}

// DirtyValues returns the minimal change-set: current values of the dirty
// fields only, keyed by wire name.
func (s *State) DirtyValues() map[string]any {
	out := make(map[string]any, len(s.dirty))
	for name := range s.dirty {
		out[name] = s.values[name]
	}
	return out
}

// MarkClean empties the dirty set. The persistence layer calls this after
// a successful write-back.
func (s *State) MarkClean() {
	s.dirty = make(map[string]struct{})
}

// Navigation returns the cached resolution of the named navigation
// property. The second result is false when the relation has not been
// resolved yet; the caller must then fetch it through the service.
func (s *State) Navigation(name string) (NavValue, bool) {
	nv, ok := s.nav[name]
	return nv, ok
}

// setNavigation stores a resolved navigation payload.
func (s *State) setNavigation(name string, nv NavValue) {
	s.nav[name] = nv
}

// InvalidateNavigation drops the cached resolution of one navigation
// property, forcing a re-fetch on next access.
func (s *State) InvalidateNavigation(name string) {
	delete(s.nav, name)
}

// InvalidateNavigations drops all cached navigation resolutions.
func (s *State) InvalidateNavigations() {
	s.nav = make(map[string]NavValue)
}

// PrimaryKeyValue returns the current value of the declared primary key.
// The second result is false when the type declares no key or the key
// value is nil.
func (s *State) PrimaryKeyValue() (any, bool) {
	key, ok := s.owner.typ.PrimaryKey()
	if !ok {
		return nil, false
	}
	v := s.values[key.Name()]
	return v, v != nil
}
