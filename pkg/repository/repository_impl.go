package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/invoicekit/pkg/db/option"
	"gorm.io/gorm"
)

type store[T any] struct {
	db    *gorm.DB
	table string
}

type StoreOption func(*storeOptions)

type storeOptions struct {
	table string
}

// WithTable binds the store to a table other than the model's TableName.
func WithTable(name string) StoreOption {
	return func(o *storeOptions) {
		o.table = name
	}
}

func ProvideStore[T any](db *gorm.DB, opts ...StoreOption) Repository[T] {
	var o storeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &store[T]{db: db, table: o.table}
}

func (r *store[T]) WithTrx(tx *gorm.DB) Repository[T] {
	return &store[T]{db: tx, table: r.table}
}

func (r *store[T]) Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error) {
	var result []*T
	err := r.buildQuery(ctx, query, opts...).Find(&result).Error
	return result, err
}

// FindOne returns (nil, nil) when no row matches.
func (r *store[T]) FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error) {
	var result T
	err := r.buildQuery(ctx, query, opts...).Take(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *store[T]) Create(ctx context.Context, resource *T) error {
	return r.session(ctx).Create(resource).Error
}

func (r *store[T]) Update(ctx context.Context, resourceID string, fields map[string]any, opts ...option.QueryOption) (int64, error) {
	res := r.buildQuery(ctx, nil, opts...).Model(new(T)).Where("id = ?", resourceID).Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *store[T]) Delete(ctx context.Context, resourceID string, opts ...option.QueryOption) (int64, error) {
	res := r.buildQuery(ctx, nil, opts...).Where("id = ?", resourceID).Delete(new(T))
	return res.RowsAffected, res.Error
}

func (r *store[T]) session(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.table != "" {
		db = db.Table(r.table)
	}
	return db
}

func (r *store[T]) buildQuery(ctx context.Context, filter *T, opts ...option.QueryOption) *gorm.DB {
	db := r.session(ctx)
	if filter != nil {
		db = db.Where(filter)
	}
	for _, opt := range opts {
		db = opt.Apply(db)
	}
	return db
}
