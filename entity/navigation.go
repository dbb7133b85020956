package entity

import "fmt"

// NavigationProperty describes a declared relation to another entity type,
// either a single related entity or a collection of them. The target type
// is referenced by name and resolved through the registry at hydration
// time, so declaration order between related types does not matter.
type NavigationProperty struct {
	propertyBase
	target     string
	collection bool
}

// Navigation declares a single-valued navigation property. name is the
// wire field name, target the registered name of the related entity type.
func Navigation(name, target string) *NavigationProperty {
	return &NavigationProperty{propertyBase: propertyBase{name: name}, target: target}
}

// NavigationCollection declares a collection-valued navigation property.
func NavigationCollection(name, target string) *NavigationProperty {
	return &NavigationProperty{propertyBase: propertyBase{name: name}, target: target, collection: true}
}

// IsCollection reports whether the property relates to many entities.
func (p *NavigationProperty) IsCollection() bool { return p.collection }

// TargetName returns the registered name of the related entity type.
func (p *NavigationProperty) TargetName() string { return p.target }

// Target resolves the related entity type through the registry.
func (p *NavigationProperty) Target() (*Type, error) {
	t, ok := Lookup(p.target)
	if !ok {
		return nil, &NotRegisteredError{TypeName: p.target}
	}
	return t, nil
}

// FromRaw is not applicable to navigation properties; embedded payloads go
// through InstancesFromData instead.
func (p *NavigationProperty) FromRaw(raw any) (any, error) {
	return nil, fmt.Errorf("navigation property %q holds entities, not scalar values", p.name)
}

// EscapeValue is not applicable to navigation properties.
func (p *NavigationProperty) EscapeValue(value any) string { return "" }

// InstancesFromData converts a raw embedded payload into entity instances.
// For a collection-valued property the payload must be a sequence of
// mappings and every element hydrates in order. For a single-valued
// property the payload must be a mapping or nil (related entity known to
// be absent).
func (p *NavigationProperty) InstancesFromData(raw any) (single *Entity, many []*Entity, err error) {
	target, err := p.Target()
	if err != nil {
		return nil, nil, err
	}

	if p.collection {
		items, err := asSequence(raw)
		if err != nil {
			return nil, nil, err
		}
		many = make([]*Entity, 0, len(items))
		for i, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, nil, fmt.Errorf("element %d: expected mapping, got %T", i, item)
			}
			e, err := FromData(target, m)
			if err != nil {
				return nil, nil, fmt.Errorf("element %d: %w", i, err)
			}
			many = append(many, e)
		}
		return nil, many, nil
	}

	if raw == nil {
		return nil, nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("expected mapping, got %T", raw)
	}
	single, err = FromData(target, m)
	return single, nil, err
}

// asSequence normalizes the payload shapes a collection can arrive in.
func asSequence(raw any) ([]any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		return v, nil
	case []map[string]any:
		items := make([]any, len(v))
		for i, m := range v {
			items[i] = m
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected sequence, got %T", raw)
	}
}
