// Package goodata provides a Go client library for OData v4 services.
//
// Declare your entity types once as reusable property contracts, and get
// typed instances with dirty tracking, a chainable query builder for
// $filter and friends, lazy navigation loading, and code generation from
// a service's $metadata document.
//
// The module is organized into six packages:
//
//   - [github.com/SimonThordal/go-odata/entity] — Core: entity types, hydration, state and dirty tracking
//   - [github.com/SimonThordal/go-odata/expr] — $filter expression AST, builders, parser, and compiler
//   - [github.com/SimonThordal/go-odata/query] — System query options and paged execution
//   - [github.com/SimonThordal/go-odata/service] — HTTP connection: load, create, save, delete, navigation
//   - [github.com/SimonThordal/go-odata/cache] — Persistent response cache for conditional requests
//   - [github.com/SimonThordal/go-odata/odatagen] — Code generator: $metadata to Go declarations
//
// The entity, expr, query, and odatagen packages compile and test without
// a network; only the service package talks to an endpoint.
package goodata
