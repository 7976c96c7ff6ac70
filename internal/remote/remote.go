// Package remote describes the backend that serves listing rows.
package remote

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by QueryOne when no row matches the filter.
var ErrNotFound = errors.New("no matching row")

// Row is one backend record as received, with snake_case field names.
type Row = json.RawMessage

// OrderTerm is one key of a composite ordering.
type OrderTerm struct {
	Field      string
	Descending bool
}

func Asc(field string) OrderTerm  { return OrderTerm{Field: field} }
func Desc(field string) OrderTerm { return OrderTerm{Field: field, Descending: true} }

// Filter restricts a query to rows whose fields equal the given values.
type Filter map[string]string

// Store is a queryable collection backend. Collections are tables or views
// addressed by name.
type Store interface {
	Query(ctx context.Context, collection string, order []OrderTerm, filter Filter) ([]Row, error)
	QueryOne(ctx context.Context, collection string, filter Filter) (Row, error)
}
