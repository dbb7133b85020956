package entity

import (
	"errors"
	"testing"
)

func TestNewType_Classification(t *testing.T) {
	typ, err := NewType("Svc.Product", "Products",
		Integer("Id", PrimaryKey()),
		String("ProductName"),
		Navigation("Category", "Svc.Category"),
		NavigationCollection("Parts", "Svc.Part"),
		Integer("QuantityInStorage"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(typ.Properties()) != 5 {
		t.Errorf("Properties: got %d, want 5", len(typ.Properties()))
	}
	if len(typ.ValueProperties()) != 3 {
		t.Fatalf("ValueProperties: got %d, want 3", len(typ.ValueProperties()))
	}
	if typ.ValueProperties()[0].Name() != "Id" || typ.ValueProperties()[2].Name() != "QuantityInStorage" {
		t.Errorf("value property order not preserved: %q, %q",
			typ.ValueProperties()[0].Name(), typ.ValueProperties()[2].Name())
	}
	if len(typ.NavigationProperties()) != 2 {
		t.Fatalf("NavigationProperties: got %d, want 2", len(typ.NavigationProperties()))
	}
	if typ.NavigationProperties()[0].IsCollection() {
		t.Error("Category should be single-valued")
	}
	if !typ.NavigationProperties()[1].IsCollection() {
		t.Error("Parts should be collection-valued")
	}

	key, ok := typ.PrimaryKey()
	if !ok {
		t.Fatal("expected a primary key")
	}
	if key.Name() != "Id" {
		t.Errorf("PrimaryKey: got %q, want %q", key.Name(), "Id")
	}
}

func TestNewType_NoKey(t *testing.T) {
	typ, err := NewType("Svc.Note", "Notes", String("Text"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := typ.PrimaryKey(); ok {
		t.Error("expected no primary key")
	}
}

func TestNewType_Errors(t *testing.T) {
	var declErr *DeclarationError

	_, err := NewType("Svc.Bad", "Bads",
		Integer("Id", PrimaryKey()),
		String("Code", PrimaryKey()),
	)
	if !errors.As(err, &declErr) {
		t.Fatalf("two keys: got %v, want DeclarationError", err)
	}

	_, err = NewType("Svc.Bad", "Bads", String("Name"), Integer("Name"))
	if !errors.As(err, &declErr) {
		t.Fatalf("duplicate name: got %v, want DeclarationError", err)
	}

	_, err = NewType("", "Bads", String("Name"))
	if !errors.As(err, &declErr) {
		t.Fatalf("empty type name: got %v, want DeclarationError", err)
	}
}

func TestType_ShortName(t *testing.T) {
	typ := MustNewType("ProductDataService.Objects.Product", "Products")
	if got := typ.ShortName(); got != "Product" {
		t.Errorf("ShortName: got %q, want %q", got, "Product")
	}

	bare := MustNewType("Product", "Products")
	if got := bare.ShortName(); got != "Product" {
		t.Errorf("ShortName: got %q, want %q", got, "Product")
	}
}

func TestType_URL(t *testing.T) {
	typ := MustNewType("Svc.Product", "Products")

	// No base configured yet: the collection stands alone.
	u, err := typ.URL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u != "Products" {
		t.Errorf("URL without base: got %q, want %q", u, "Products")
	}

	typ.SetURLBase("https://svc/")
	u, err = typ.URL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u != "https://svc/Products" {
		t.Errorf("URL: got %q, want %q", u, "https://svc/Products")
	}

	// An absolute collection name overrides the base entirely.
	abs := MustNewType("Svc.External", "https://other/Entities")
	abs.SetURLBase("https://svc/")
	u, err = abs.URL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u != "https://other/Entities" {
		t.Errorf("absolute URL: got %q, want %q", u, "https://other/Entities")
	}
}

func TestType_PropertyByName(t *testing.T) {
	typ := MustNewType("Svc.Product", "Products",
		Integer("Id", PrimaryKey()),
		Navigation("Category", "Svc.Category"),
	)

	if _, ok := typ.PropertyByName("Id"); !ok {
		t.Error("Id should be declared")
	}
	if _, ok := typ.PropertyByName("Category"); !ok {
		t.Error("Category should be declared")
	}
	if _, ok := typ.PropertyByName("Nope"); ok {
		t.Error("Nope should not be declared")
	}
}
