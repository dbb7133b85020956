package odatagen

import (
	"fmt"
	"strings"
)

// SchemaSpec is the generator's view of a service schema: every entity
// type with its properties, keys, navigations, and collection name.
type SchemaSpec struct {
	Namespace string
	Entities  []EntitySpec
}

// EntitySpec is one entity type of the schema.
type EntitySpec struct {
	// Name is the simple type name ("Product").
	Name string
	// TypeName is the namespace-qualified schema name ("Demo.Product").
	TypeName string
	// Collection is the entity set name from the container.
	Collection string
	Properties []PropertySpec
	Navs       []NavSpec
}

// PropertySpec is one structural property.
type PropertySpec struct {
	Name    string
	EdmType string
	Key     bool
}

// NavSpec is one navigation property.
type NavSpec struct {
	Name string
	// Target is the namespace-qualified name of the related type.
	Target string
	// Collection marks a to-many relation, declared in CSDL as
	// Type="Collection(...)".
	Collection bool
}

// buildSchema flattens a parsed CSDL document into a SchemaSpec. Entity
// sets are matched to their types through the container; a type no set
// exposes has no collection URL a client could address, so it is skipped.
func buildSchema(doc *csdlEdmx) (*SchemaSpec, error) {
	if len(doc.DataServices.Schemas) == 0 {
		return nil, fmt.Errorf("parse metadata: no schema element")
	}

	// entity set lookup across every schema's containers
	sets := make(map[string]string) // qualified type name -> set name
	for _, schema := range doc.DataServices.Schemas {
		for _, container := range schema.Containers {
			for _, set := range container.EntitySets {
				sets[set.EntityType] = set.Name
			}
		}
	}

	out := &SchemaSpec{}
	for _, schema := range doc.DataServices.Schemas {
		if len(schema.EntityTypes) == 0 {
			continue
		}
		if out.Namespace == "" {
			out.Namespace = schema.Namespace
		}
		for _, et := range schema.EntityTypes {
			if sets[schema.Namespace+"."+et.Name] == "" {
				continue
			}
			spec, err := buildEntity(schema.Namespace, et, sets)
			if err != nil {
				return nil, err
			}
			out.Entities = append(out.Entities, spec)
		}
	}
	if len(out.Entities) == 0 {
		return nil, fmt.Errorf("parse metadata: no entity types backed by an entity set")
	}
	return out, nil
}

func buildEntity(namespace string, et csdlEntityType, sets map[string]string) (EntitySpec, error) {
	qualified := namespace + "." + et.Name
	spec := EntitySpec{
		Name:       et.Name,
		TypeName:   qualified,
		Collection: sets[qualified],
	}

	keys := make(map[string]bool, len(et.Keys))
	for _, ref := range et.Keys {
		keys[ref.Name] = true
	}

	for _, p := range et.Properties {
		if p.Type == "" {
			return EntitySpec{}, fmt.Errorf("parse metadata: %s.%s has no type", et.Name, p.Name)
		}
		spec.Properties = append(spec.Properties, PropertySpec{
			Name:    p.Name,
			EdmType: p.Type,
			Key:     keys[p.Name],
		})
	}

	for _, n := range et.Navs {
		target := n.Type
		collection := false
		if inner, ok := strings.CutPrefix(target, "Collection("); ok {
			target = strings.TrimSuffix(inner, ")")
			collection = true
		}
		spec.Navs = append(spec.Navs, NavSpec{
			Name:       n.Name,
			Target:     target,
			Collection: collection,
		})
	}

	return spec, nil
}

// edmToCtor maps an EDM primitive type to the property constructor it is
// declared with. Unknown EDM types fall back to String, which keeps the
// raw wire value readable.
func edmToCtor(edmType string) string {
	switch edmType {
	case "Edm.String":
		return "String"
	case "Edm.Int16", "Edm.Int32", "Edm.Int64", "Edm.Byte", "Edm.SByte":
		return "Integer"
	case "Edm.Double", "Edm.Single":
		return "Float"
	case "Edm.Decimal":
		return "Decimal"
	case "Edm.Boolean":
		return "Boolean"
	case "Edm.DateTimeOffset", "Edm.Date":
		return "Datetime"
	case "Edm.Guid":
		return "Guid"
	default:
		return "String"
	}
}
