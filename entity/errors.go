package entity

import "fmt"

// NotRegisteredError is returned when a navigation target or collection
// refers to an entity type that has not been registered.
type NotRegisteredError struct {
	TypeName string
}

// Error returns the error message for NotRegisteredError.
func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("entity type %q is not registered", e.TypeName)
}

// NotDeclaredError is returned when a field name does not match any
// declared property of the entity type.
type NotDeclaredError struct {
	TypeName string
	Field    string
}

// Error returns the error message for NotDeclaredError.
func (e *NotDeclaredError) Error() string {
	return fmt.Sprintf("%s has no declared property %q", e.TypeName, e.Field)
}

// DeclarationError is returned when an entity type declaration is invalid,
// for example two properties marked as primary key or duplicate wire names.
type DeclarationError struct {
	TypeName string
	Message  string
}

// Error returns the error message for DeclarationError.
func (e *DeclarationError) Error() string {
	return fmt.Sprintf("declaring %s: %s", e.TypeName, e.Message)
}

// HydrationError is returned when a raw wire value cannot be converted into
// a declared property's value.
type HydrationError struct {
	TypeName string
	Field    string
	Cause    error
}

// Error returns the error message for HydrationError.
func (e *HydrationError) Error() string {
	return fmt.Sprintf("hydrating %s.%s: %v", e.TypeName, e.Field, e.Cause)
}

// Unwrap returns the underlying cause of the HydrationError.
func (e *HydrationError) Unwrap() error {
	return e.Cause
}

// NavigationError is returned for invalid access to a navigation property,
// such as reading it through the scalar accessors.
type NavigationError struct {
	TypeName string
	Field    string
	Message  string
}

// Error returns the error message for NavigationError.
func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation %s.%s: %s", e.TypeName, e.Field, e.Message)
}
