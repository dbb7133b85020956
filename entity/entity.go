// Package entity maps raw OData records to typed, identity-bearing objects.
//
// An entity type is declared once, as a reusable property contract, with no
// network access:
//
//	var Product = entity.MustNewType(
//	    "ProductDataService.Objects.Product", "Products",
//	    entity.Integer("Id", entity.PrimaryKey()),
//	    entity.String("ProductName"),
//	    entity.Integer("QuantityInStorage"),
//	    entity.Navigation("Category", "ProductDataService.Objects.Category"),
//	)
//
//	func init() { entity.MustRegister(Product) }
//
// Instances are constructed empty with New, or hydrated from a raw wire
// mapping with FromData. All field storage and change tracking lives in the
// per-instance State companion; the instance itself holds nothing, so
// bookkeeping never collides with declared field names.
package entity

import "fmt"

// Entity is a typed instance of a declared entity type. It owns exactly
// one State companion, created at construction, which holds all field
// values, the dirty set, and the navigation cache.
type Entity struct {
	typ   *Type
	state *State
}

// New constructs an empty instance of t: every declared value property
// reads as nil, the navigation cache is empty, and nothing is dirty.
func New(t *Type) *Entity {
	e := &Entity{typ: t}
	e.state = newState(e)
	return e
}

// FromData constructs an instance of t from a raw wire mapping.
//
// Embedded payloads for declared navigation properties are peeled off
// first, in declaration order, converted through the navigation property's
// target type, and stored in the navigation cache tagged by cardinality.
// The remaining entries are read into the declared value properties, in
// declaration order, defaulting to nil when absent. Entries with no
// matching declaration are ignored. Nothing is marked dirty: the hydrated
// values are the baseline as last known from the service.
//
// The caller's map is not modified; stripping happens on an internal copy,
// so the value extraction never sees an embedded relation payload.
func FromData(t *Type, raw map[string]any) (*Entity, error) {
	e := New(t)
	if err := e.ApplyData(raw); err != nil {
		return nil, err
	}
	return e, nil
}

// ApplyData rehydrates the instance in place from a raw wire mapping,
// using the same conversion path as FromData. The hydrated values become
// the new baseline: the dirty set is cleared and embedded navigation
// payloads replace any cached resolutions. The service layer calls this
// with a server echo after a write so local state matches what the
// service persisted.
func (e *Entity) ApplyData(raw map[string]any) error {
	data := make(map[string]any, len(raw))
	for k, v := range raw {
		data[k] = v
	}

	for _, nav := range e.typ.navProps {
		payload, ok := data[nav.Name()]
		if !ok {
			continue
		}
		delete(data, nav.Name())
		if err := e.storeNavigation(nav, payload); err != nil {
			return err
		}
	}

	for _, prop := range e.typ.valueProps {
		rawValue := data[prop.Name()]
		if rawValue == nil {
			e.state.setBaseline(prop.Name(), nil)
			continue
		}
		v, err := prop.FromRaw(rawValue)
		if err != nil {
			return &HydrationError{TypeName: e.typ.name, Field: prop.Name(), Cause: err}
		}
		e.state.setBaseline(prop.Name(), v)
	}
	e.state.MarkClean()

	return nil
}

// Type returns the entity's declared type metadata.
func (e *Entity) Type() *Type { return e.typ }

// State returns the per-instance storage and change-tracking companion.
func (e *Entity) State() *State { return e.state }

// Get reads the current value of a declared value property.
func (e *Entity) Get(name string) (any, error) {
	prop, ok := e.typ.PropertyByName(name)
	if !ok {
		return nil, &NotDeclaredError{TypeName: e.typ.name, Field: name}
	}
	if _, isNav := prop.(*NavigationProperty); isNav {
		return nil, &NavigationError{TypeName: e.typ.name, Field: name,
			Message: "read related entities through Navigation, not Get"}
	}
	v, _ := e.state.Value(name)
	return v, nil
}

// Set writes a declared value property and marks exactly that field dirty.
// The value is coerced through the property descriptor, so reads after a
// write observe the same representation hydration would produce.
func (e *Entity) Set(name string, value any) error {
	prop, ok := e.typ.PropertyByName(name)
	if !ok {
		return &NotDeclaredError{TypeName: e.typ.name, Field: name}
	}
	if _, isNav := prop.(*NavigationProperty); isNav {
		return &NavigationError{TypeName: e.typ.name, Field: name,
			Message: "related entities cannot be assigned through Set"}
	}
	v, err := prop.FromRaw(value)
	if err != nil {
		return &HydrationError{TypeName: e.typ.name, Field: name, Cause: err}
	}
	e.state.SetValue(name, v)
	return nil
}

// Navigation returns the cached resolution of a declared navigation
// property. resolved is false when the relation has not been fetched yet;
// resolving it is the service layer's job.
func (e *Entity) Navigation(name string) (nv NavValue, resolved bool, err error) {
	nav, ok := e.navByName(name)
	if !ok {
		return NavValue{}, false, &NotDeclaredError{TypeName: e.typ.name, Field: name}
	}
	nv, resolved = e.state.Navigation(nav.Name())
	return nv, resolved, nil
}

// ResolveNavigation converts a raw payload for the named navigation
// property and stores it in the cache, tagged by the property's declared
// cardinality. The fetch collaborator calls this with the body of a
// navigation request; hydration uses the same path for embedded payloads.
func (e *Entity) ResolveNavigation(name string, raw any) error {
	nav, ok := e.navByName(name)
	if !ok {
		return &NotDeclaredError{TypeName: e.typ.name, Field: name}
	}
	return e.storeNavigation(nav, raw)
}

func (e *Entity) storeNavigation(nav *NavigationProperty, raw any) error {
	single, many, err := nav.InstancesFromData(raw)
	if err != nil {
		return &HydrationError{TypeName: e.typ.name, Field: nav.Name(), Cause: err}
	}
	if nav.IsCollection() {
		e.state.setNavigation(nav.Name(), NavValue{Collection: true, Entities: many})
	} else {
		e.state.setNavigation(nav.Name(), NavValue{Entity: single})
	}
	return nil
}

func (e *Entity) navByName(name string) (*NavigationProperty, bool) {
	for _, nav := range e.typ.navProps {
		if nav.Name() == name {
			return nav, true
		}
	}
	return nil, false
}

// Equal reports whether two instances refer to the same persisted record.
// Identity is defined by the entity type and the declared primary key:
// both sides must be instances of the same type carrying a non-nil key
// value, and those values must be equal. An instance with a nil key
// equals nothing except itself; the same instance always compares equal
// via the identity short-circuit, which keeps equality reflexive even
// before a key is assigned. Comparing against a non-entity value returns
// false, never an error.
func (e *Entity) Equal(other any) bool {
	o, ok := other.(*Entity)
	if !ok || o == nil {
		return false
	}
	if e == o {
		return true
	}
	if e.typ != o.typ {
		return false
	}
	mine, ok := e.state.PrimaryKeyValue()
	if !ok {
		return false
	}
	theirs, ok := o.state.PrimaryKeyValue()
	if !ok {
		return false
	}
	return mine == theirs
}

// String renders the debug representation: Entity(Product:7) when a
// non-nil primary key is present, using the key property's own value
// escaping, otherwise Entity(Product).
func (e *Entity) String() string {
	name := e.typ.ShortName()
	if key, ok := e.typ.PrimaryKey(); ok {
		if v, _ := e.state.Value(key.Name()); v != nil {
			return fmt.Sprintf("Entity(%s:%s)", name, key.EscapeValue(v))
		}
	}
	return fmt.Sprintf("Entity(%s)", name)
}
