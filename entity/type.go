package entity

import (
	"fmt"
	"net/url"
	"strings"
)

// Type holds the immutable class-level metadata of an entity type: its
// schema type name, its collection (entity set) name, and the declared
// property table. Properties are classified into value and navigation
// properties once, at declaration. The URL base is the only mutable piece;
// it is typically set when a service root becomes known.
type Type struct {
	name       string
	collection string
	urlBase    string

	properties []Property
	valueProps []Property
	navProps   []*NavigationProperty
	key        Property
}

// NewType declares an entity type. name is the schema type name (for
// example "ProductDataService.Objects.Product"), collection the entity set
// name used in URLs. Properties keep their declaration order. At most one
// property may be marked as primary key, and wire names must be unique.
func NewType(name, collection string, props ...Property) (*Type, error) {
	if name == "" {
		return nil, &DeclarationError{TypeName: name, Message: "type name must not be empty"}
	}
	if collection == "" {
		return nil, &DeclarationError{TypeName: name, Message: "collection name must not be empty"}
	}

	t := &Type{
		name:       name,
		collection: collection,
		properties: props,
	}

	seen := make(map[string]struct{}, len(props))
	for _, p := range props {
		if _, dup := seen[p.Name()]; dup {
			return nil, &DeclarationError{TypeName: name, Message: fmt.Sprintf("duplicate property %q", p.Name())}
		}
		seen[p.Name()] = struct{}{}

		if nav, ok := p.(*NavigationProperty); ok {
			if nav.IsKey() {
				return nil, &DeclarationError{TypeName: name, Message: fmt.Sprintf("navigation property %q cannot be a primary key", p.Name())}
			}
			t.navProps = append(t.navProps, nav)
			continue
		}

		t.valueProps = append(t.valueProps, p)
		if p.IsKey() {
			if t.key != nil {
				return nil, &DeclarationError{TypeName: name, Message: fmt.Sprintf("multiple primary keys: %q and %q", t.key.Name(), p.Name())}
			}
			t.key = p
		}
	}

	return t, nil
}

// MustNewType is like NewType but panics on a declaration error. It is
// intended for package-level type declarations.
func MustNewType(name, collection string, props ...Property) *Type {
	t, err := NewType(name, collection, props...)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the schema type name.
func (t *Type) Name() string { return t.name }

// ShortName returns the last dot-separated segment of the schema type
// name, used in the debug representation.
func (t *Type) ShortName() string {
	if i := strings.LastIndexByte(t.name, '.'); i >= 0 {
		return t.name[i+1:]
	}
	return t.name
}

// Collection returns the entity set name.
func (t *Type) Collection() string { return t.collection }

// Properties returns all declared properties in declaration order.
// The returned slice must be treated as read-only.
func (t *Type) Properties() []Property { return t.properties }

// ValueProperties returns the declared value properties in declaration
// order. The returned slice must be treated as read-only.
func (t *Type) ValueProperties() []Property { return t.valueProps }

// NavigationProperties returns the declared navigation properties in
// declaration order. The returned slice must be treated as read-only.
func (t *Type) NavigationProperties() []*NavigationProperty { return t.navProps }

// PrimaryKey returns the declared primary key property, or false if the
// type declares none.
func (t *Type) PrimaryKey() (Property, bool) {
	return t.key, t.key != nil
}

// PropertyByName returns the declared property with the given wire name.
func (t *Type) PropertyByName(name string) (Property, bool) {
	for _, p := range t.properties {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// URLBase returns the currently configured service root for this type.
func (t *Type) URLBase() string { return t.urlBase }

// SetURLBase configures the service root the collection URL resolves
// against. It may be called at any time after declaration.
func (t *Type) SetURLBase(base string) { t.urlBase = base }

// URL resolves the canonical collection address by joining the URL base
// and the collection name with standard hierarchical URL semantics: a
// relative collection name resolves against the base, an absolute one
// overrides it. The result is computed on demand and never cached.
func (t *Type) URL() (string, error) {
	if t.urlBase == "" {
		return t.collection, nil
	}
	base, err := url.Parse(t.urlBase)
	if err != nil {
		return "", fmt.Errorf("url base %q: %w", t.urlBase, err)
	}
	ref, err := url.Parse(t.collection)
	if err != nil {
		return "", fmt.Errorf("collection %q: %w", t.collection, err)
	}
	return base.ResolveReference(ref).String(), nil
}
