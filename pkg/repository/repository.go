package repository

import (
	"context"

	"github.com/smallbiznis/invoicekit/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is a table-bound generic store over gorm.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	Update(ctx context.Context, resourceID string, fields map[string]any, opts ...option.QueryOption) (int64, error)
	Delete(ctx context.Context, resourceID string, opts ...option.QueryOption) (int64, error)
}
