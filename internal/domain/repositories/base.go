package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ListOptions struct {
	Offset  int
	Limit   int
	OrderBy string
	Order   string // asc or desc
}

// sortableColumns is the allowlist for caller-supplied sort fields.
// sort_order is there for the tree entities, which keep an explicit
// sibling order instead of sorting by recency.
var sortableColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"status":     true,
	"sort_order": true,
}

func NewListOptions(page, perPage int) *ListOptions {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	return &ListOptions{
		Offset: (page - 1) * perPage,
		Limit:  perPage,
	}
}

// WithSort requests an explicit ordering. Unknown columns and directions
// are ignored rather than passed into SQL, leaving the entity's own
// default ordering in place.
func (o *ListOptions) WithSort(orderBy, order string) *ListOptions {
	if sortableColumns[orderBy] {
		o.OrderBy = orderBy
	}
	if order == "asc" || order == "desc" {
		o.Order = order
	}
	return o
}

// OrderClause resolves the effective ordering: the caller's requested sort
// when one was accepted, otherwise the entity's fallback.
func (o *ListOptions) OrderClause(fallback string) string {
	if o.OrderBy == "" {
		return fallback
	}
	order := o.Order
	if order == "" {
		order = "asc"
	}
	return o.OrderBy + " " + order
}

type BaseRepository[T any] struct {
	db *gorm.DB
}

func NewBaseRepository[T any](db *gorm.DB) *BaseRepository[T] {
	return &BaseRepository[T]{db: db}
}

func (r *BaseRepository[T]) DB() *gorm.DB {
	return r.db
}

func (r *BaseRepository[T]) Create(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

func (r *BaseRepository[T]) Update(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Save(entity).Error
}

func (r *BaseRepository[T]) Delete(ctx context.Context, id uuid.UUID) error {
	var entity T
	return r.db.WithContext(ctx).Delete(&entity, "id = ?", id).Error
}

func (r *BaseRepository[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var entity T
	err := r.db.WithContext(ctx).First(&entity, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *BaseRepository[T]) FindAll(ctx context.Context, opts *ListOptions) ([]T, int64, error) {
	var entities []T
	var total int64

	query := r.db.WithContext(ctx).Model(new(T))
	query.Count(&total)

	if opts != nil {
		query = query.Order(opts.OrderClause("created_at desc"))
		query = query.Offset(opts.Offset).Limit(opts.Limit)
	}

	err := query.Find(&entities).Error
	return entities, total, err
}

func (r *BaseRepository[T]) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *BaseRepository[T]) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}
