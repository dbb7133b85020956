// Package query builds OData system query options against a registered
// entity type and executes them through a service connection.
package query

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/SimonThordal/go-odata/entity"
	"github.com/SimonThordal/go-odata/expr"
)

// Page is one page of a collection response as decoded from the wire.
type Page struct {
	// Values holds the raw entity payloads of this page.
	Values []map[string]any
	// NextLink is the @odata.nextLink of the page, empty on the last page.
	NextLink string
	// Count is the @odata.count annotation when $count=true was requested.
	Count int64
}

// Executor runs a prepared query against a service. The first page is
// fetched from the type's collection URL with the given query options;
// follow-up pages are fetched from the next link verbatim.
type Executor interface {
	FetchPage(ctx context.Context, t *entity.Type, values url.Values) (*Page, error)
	FetchNext(ctx context.Context, nextLink string) (*Page, error)
}

// Query accumulates system query options for one entity type. Builder
// methods return the query itself so calls chain; a builder error is
// deferred and reported by the terminal methods.
type Query struct {
	typ      *entity.Type
	exec     Executor
	filters  []expr.Expr
	orderBy  []string
	expand   []string
	selects  []string
	top      int
	skip     int
	hasTop   bool
	hasSkip  bool
	deferred error
}

// New creates a query for the given entity type bound to an executor.
func New(t *entity.Type, exec Executor) *Query {
	return &Query{typ: t, exec: exec}
}

// Type returns the entity type this query targets.
func (q *Query) Type() *entity.Type {
	return q.typ
}

// Filter adds a filter expression. Multiple filters are combined with
// logical AND.
func (q *Query) Filter(e expr.Expr) *Query {
	q.filters = append(q.filters, e)
	return q
}

// FilterString parses raw $filter text and adds it as a filter. A parse
// error is deferred until the query executes.
func (q *Query) FilterString(text string) *Query {
	e, err := expr.Parse(text)
	if err != nil {
		if q.deferred == nil {
			q.deferred = err
		}
		return q
	}
	return q.Filter(e)
}

// OrderAsc adds an ascending $orderby clause for the property path.
func (q *Query) OrderAsc(path string) *Query {
	q.orderBy = append(q.orderBy, path+" asc")
	return q
}

// OrderDesc adds a descending $orderby clause for the property path.
func (q *Query) OrderDesc(path string) *Query {
	q.orderBy = append(q.orderBy, path+" desc")
	return q
}

// Top limits the result to at most n entities.
func (q *Query) Top(n int) *Query {
	q.top = n
	q.hasTop = true
	return q
}

// Skip skips the first n entities of the result.
func (q *Query) Skip(n int) *Query {
	q.skip = n
	q.hasSkip = true
	return q
}

// Expand requests inline expansion of the named navigation properties.
func (q *Query) Expand(names ...string) *Query {
	q.expand = append(q.expand, names...)
	return q
}

// Select restricts the response to the named properties.
func (q *Query) Select(names ...string) *Query {
	q.selects = append(q.selects, names...)
	return q
}

// Values renders the accumulated options as URL query parameters.
func (q *Query) Values() (url.Values, error) {
	if q.deferred != nil {
		return nil, q.deferred
	}
	values := url.Values{}
	if len(q.filters) > 0 {
		text, err := expr.NewCompiler().Compile(expr.And(q.filters...))
		if err != nil {
			return nil, err
		}
		values.Set("$filter", text)
	}
	if len(q.orderBy) > 0 {
		values.Set("$orderby", strings.Join(q.orderBy, ","))
	}
	if len(q.expand) > 0 {
		values.Set("$expand", strings.Join(q.expand, ","))
	}
	if len(q.selects) > 0 {
		values.Set("$select", strings.Join(q.selects, ","))
	}
	if q.hasTop {
		values.Set("$top", strconv.Itoa(q.top))
	}
	if q.hasSkip {
		values.Set("$skip", strconv.Itoa(q.skip))
	}
	return values, nil
}

// All executes the query and returns every matching entity, following
// server paging links until the result is exhausted.
func (q *Query) All(ctx context.Context) ([]*entity.Entity, error) {
	if q.exec == nil {
		return nil, fmt.Errorf("query: no executor bound for %s", q.typ.Name())
	}
	values, err := q.Values()
	if err != nil {
		return nil, err
	}

	var out []*entity.Entity
	page, err := q.exec.FetchPage(ctx, q.typ, values)
	for {
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Values {
			e, err := entity.FromData(q.typ, raw)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		if page.NextLink == "" {
			return out, nil
		}
		page, err = q.exec.FetchNext(ctx, page.NextLink)
	}
}

// First executes the query limited to a single entity. It returns nil
// when nothing matches.
func (q *Query) First(ctx context.Context) (*entity.Entity, error) {
	results, err := q.Top(1).All(ctx)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// Count executes the query with $count=true and returns the server-side
// total, ignoring paging.
func (q *Query) Count(ctx context.Context) (int64, error) {
	if q.exec == nil {
		return 0, fmt.Errorf("query: no executor bound for %s", q.typ.Name())
	}
	values, err := q.Values()
	if err != nil {
		return 0, err
	}
	values.Set("$count", "true")
	// the payload itself is not needed, only the annotation.
	values.Set("$top", "0")
	page, err := q.exec.FetchPage(ctx, q.typ, values)
	if err != nil {
		return 0, err
	}
	return page.Count, nil
}
