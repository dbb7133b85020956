// Package odatagen generates Go entity type declarations from an OData
// $metadata document.
package odatagen

import (
	"encoding/xml"
	"fmt"
	"os"
)

// --- CSDL document structs ---
// These mirror the subset of the CSDL XML schema the generator consumes:
// entity types with their keys, properties, and navigation properties,
// plus the entity container that names the collections.

type csdlEdmx struct {
	XMLName      xml.Name         `xml:"Edmx"`
	DataServices csdlDataServices `xml:"DataServices"`
}

type csdlDataServices struct {
	Schemas []csdlSchema `xml:"Schema"`
}

type csdlSchema struct {
	Namespace   string           `xml:"Namespace,attr"`
	EntityTypes []csdlEntityType `xml:"EntityType"`
	Containers  []csdlContainer  `xml:"EntityContainer"`
}

type csdlEntityType struct {
	Name       string            `xml:"Name,attr"`
	Keys       []csdlPropertyRef `xml:"Key>PropertyRef"`
	Properties []csdlProperty    `xml:"Property"`
	Navs       []csdlNavProperty `xml:"NavigationProperty"`
}

type csdlPropertyRef struct {
	Name string `xml:"Name,attr"`
}

type csdlProperty struct {
	Name     string `xml:"Name,attr"`
	Type     string `xml:"Type,attr"`
	Nullable string `xml:"Nullable,attr"`
}

type csdlNavProperty struct {
	Name string `xml:"Name,attr"`
	Type string `xml:"Type,attr"`
}

type csdlContainer struct {
	Name       string          `xml:"Name,attr"`
	EntitySets []csdlEntitySet `xml:"EntitySet"`
}

type csdlEntitySet struct {
	Name       string `xml:"Name,attr"`
	EntityType string `xml:"EntityType,attr"`
}

// ParseMetadata parses a CSDL $metadata document into a schema spec.
func ParseMetadata(data []byte) (*SchemaSpec, error) {
	var doc csdlEdmx
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return buildSchema(&doc)
}

// ParseMetadataFile reads and parses a CSDL $metadata document from disk.
func ParseMetadataFile(path string) (*SchemaSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	return ParseMetadata(data)
}
