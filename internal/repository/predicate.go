package repository

import (
	"fmt"
	"strings"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Field is a filterable product column
type Field string

const (
	FieldBrandID    Field = "brand_id"
	FieldCategoryID Field = "category_id"
	FieldColors     Field = "colors"
	FieldSizes      Field = "sizes"
	FieldPrice      Field = "price"
)

// Op is the comparison a Predicate performs
type Op int

const (
	OpEqual Op = iota + 1
	OpOverlap
	OpRange
	OpIn
)

// Predicate is one typed clause of a conjunctive product query
type Predicate struct {
	Field  Field
	Op     Op
	ID     uuid.UUID
	IDs    []uuid.UUID
	Values []string
	Min    *float64
	Max    *float64
}

// Equal matches products whose id column equals id
func Equal(field Field, id uuid.UUID) Predicate {
	return Predicate{Field: field, Op: OpEqual, ID: id}
}

// Overlaps matches products whose set column shares at least one element with values
func Overlaps(field Field, values []string) Predicate {
	return Predicate{Field: field, Op: OpOverlap, Values: values}
}

// Between matches an inclusive range; a nil bound is open
func Between(field Field, min, max *float64) Predicate {
	return Predicate{Field: field, Op: OpRange, Min: min, Max: max}
}

// In matches products whose id column is one of ids
func In(field Field, ids []uuid.UUID) Predicate {
	return Predicate{Field: field, Op: OpIn, IDs: ids}
}

// whereClause renders predicates as an AND-ed SQL condition with positional
// arguments starting at $1. An empty list renders an empty clause.
func whereClause(alias string, predicates []Predicate) (string, []interface{}, error) {
	var (
		conditions []string
		args       []interface{}
	)

	for _, p := range predicates {
		column := alias + "." + string(p.Field)

		switch p.Op {
		case OpEqual:
			args = append(args, p.ID)
			conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
		case OpOverlap:
			args = append(args, pq.Array(p.Values))
			conditions = append(conditions, fmt.Sprintf("%s && $%d::text[]", column, len(args)))
		case OpRange:
			switch {
			case p.Min != nil && p.Max != nil:
				args = append(args, *p.Min, *p.Max)
				conditions = append(conditions, fmt.Sprintf("%s BETWEEN $%d AND $%d", column, len(args)-1, len(args)))
			case p.Min != nil:
				args = append(args, *p.Min)
				conditions = append(conditions, fmt.Sprintf("%s >= $%d", column, len(args)))
			case p.Max != nil:
				args = append(args, *p.Max)
				conditions = append(conditions, fmt.Sprintf("%s <= $%d", column, len(args)))
			}
		case OpIn:
			args = append(args, pq.Array(uuidStrings(p.IDs)))
			conditions = append(conditions, fmt.Sprintf("%s = ANY($%d::uuid[])", column, len(args)))
		default:
			return "", nil, fmt.Errorf("unsupported predicate op %d on %s", p.Op, p.Field)
		}
	}

	if len(conditions) == 0 {
		return "", nil, nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args, nil
}

// Matches evaluates the predicate against an in-memory product with the same
// semantics the SQL rendering has.
func (p Predicate) Matches(product *domain.Product) bool {
	switch p.Op {
	case OpEqual:
		return p.idField(product) == p.ID
	case OpOverlap:
		return overlaps(p.setField(product), p.Values)
	case OpRange:
		if p.Min != nil && product.Price < *p.Min {
			return false
		}
		if p.Max != nil && product.Price > *p.Max {
			return false
		}
		return true
	case OpIn:
		id := p.idField(product)
		for _, candidate := range p.IDs {
			if candidate == id {
				return true
			}
		}
		return false
	}
	return false
}

// MatchesAll reports whether product satisfies every predicate
func MatchesAll(product *domain.Product, predicates []Predicate) bool {
	for _, p := range predicates {
		if !p.Matches(product) {
			return false
		}
	}
	return true
}

func (p Predicate) idField(product *domain.Product) uuid.UUID {
	if p.Field == FieldBrandID {
		return product.BrandID
	}
	return product.CategoryID
}

func (p Predicate) setField(product *domain.Product) []string {
	if p.Field == FieldSizes {
		return product.Sizes
	}
	return product.Colors
}

func overlaps(a, b []string) bool {
	seen := make(map[string]struct{}, len(a))
	for _, v := range a {
		seen[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := seen[v]; ok {
			return true
		}
	}
	return false
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
