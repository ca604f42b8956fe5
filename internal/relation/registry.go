// Package relation resolves the polymorphic (type, id) pointers held by
// documents and lines into concrete business entities.
package relation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// ResolverFunc returns the entity with the given id, or (nil, nil) when it does not exist.
type ResolverFunc func(ctx context.Context, id string) (any, error)

// Registration contributes a resolver for one related type through the
// "related_resolvers" fx group.
type Registration struct {
	Type    string
	Resolve ResolverFunc
}

type Registry struct {
	mu        sync.RWMutex
	resolvers map[string]ResolverFunc
}

type Params struct {
	fx.In

	Registrations []Registration `group:"related_resolvers"`
}

func NewRegistry(p Params) *Registry {
	r := &Registry{resolvers: make(map[string]ResolverFunc)}
	for _, reg := range p.Registrations {
		r.Register(reg.Type, reg.Resolve)
	}
	return r
}

func (r *Registry) Register(typ string, fn ResolverFunc) {
	typ = strings.TrimSpace(typ)
	if typ == "" || fn == nil {
		return
	}
	r.mu.Lock()
	r.resolvers[typ] = fn
	r.mu.Unlock()
}

func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.resolvers))
	for typ := range r.resolvers {
		types = append(types, typ)
	}
	return types
}

func (r *Registry) Resolve(ctx context.Context, ref domain.RelatedRef) (any, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	fn, ok := r.resolvers[ref.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownRelatedType, ref.Type)
	}

	entity, err := fn(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, fmt.Errorf("%w: %s %s", domain.ErrNotFound, ref.Type, ref.ID)
	}
	return entity, nil
}

// TableResolver reads a row by primary key from a plain table into a map.
func TableResolver(conn *gorm.DB, table string) ResolverFunc {
	return func(ctx context.Context, id string) (any, error) {
		row := map[string]any{}
		err := conn.WithContext(ctx).Table(table).Where("id = ?", id).Take(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		}
		return row, nil
	}
}
