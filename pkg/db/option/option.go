// Package option holds composable gorm query modifiers used by repositories.
package option

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryOptionFunc func(db *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

type Operator string

const (
	EQ  Operator = "eq"
	NEQ Operator = "neq"
	GT  Operator = "gt"
	GTE Operator = "gte"
	LT  Operator = "lt"
	LTE Operator = "lte"
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// ApplyOperator adds a single column comparison. Unknown operators are ignored.
func ApplyOperator(c Condition) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		column := clause.Column{Name: c.Field}
		var expr clause.Expression
		switch c.Operator {
		case EQ:
			expr = clause.Eq{Column: column, Value: c.Value}
		case NEQ:
			expr = clause.Neq{Column: column, Value: c.Value}
		case GT:
			expr = clause.Gt{Column: column, Value: c.Value}
		case GTE:
			expr = clause.Gte{Column: column, Value: c.Value}
		case LT:
			expr = clause.Lt{Column: column, Value: c.Value}
		case LTE:
			expr = clause.Lte{Column: column, Value: c.Value}
		default:
			return db
		}
		return db.Where(expr)
	})
}

type QuerySortBy struct {
	SortBy  string
	OrderBy string
	Allow   map[string]bool
	Default string
}

// WithSortBy orders by an allow-listed column, falling back to Default then created_at.
func WithSortBy(s QuerySortBy) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		column := strings.ToLower(strings.TrimSpace(s.SortBy))
		if column == "" || !s.Allow[column] {
			column = s.Default
		}
		if column == "" {
			column = "created_at"
		}
		desc := strings.EqualFold(strings.TrimSpace(s.OrderBy), "desc")
		return db.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc})
	})
}

func WithLimit(limit int) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}

// WithUnscoped includes soft-deleted rows.
func WithUnscoped() QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Unscoped()
	})
}

// Where adds a raw predicate; use for predicates that must hold even on zero values.
func Where(query string, args ...any) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	})
}
