package catalog

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"equipmarket/internal/domain"
	"equipmarket/internal/query"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) DB() *gorm.DB { return r.db }

func (r *Repository) CreateTx(tx *gorm.DB, e domain.Equipment) (domain.Equipment, error) {
	m := toItemModel(e)
	m.ID = 0
	if err := tx.Create(m).Error; err != nil {
		return domain.Equipment{}, domain.NewStorageError("catalog.create", err)
	}
	return toDomainEquipment(m), nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (domain.Equipment, error) {
	var m Item
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Equipment{}, domain.ErrNotFound
		}
		return domain.Equipment{}, domain.NewStorageError("catalog.get", err)
	}
	return toDomainEquipment(&m), nil
}

// GetForUpdate re-reads the row under a row lock. Sqlite ignores the lock
// clause; its single connection already serializes writers.
func (r *Repository) GetForUpdate(tx *gorm.DB, id int64) (domain.Equipment, error) {
	var m Item
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Equipment{}, domain.ErrNotFound
		}
		return domain.Equipment{}, domain.NewStorageError("catalog.get_for_update", err)
	}
	return toDomainEquipment(&m), nil
}

func (r *Repository) UpdateTx(tx *gorm.DB, e domain.Equipment) (domain.Equipment, error) {
	now := time.Now()
	res := tx.Model(&Item{}).Where("id = ?", e.ID).Updates(map[string]any{
		"name":         e.Name,
		"model":        e.Model,
		"manufacturer": e.Manufacturer,
		"description":  e.Description,
		"price":        e.Price,
		"quantity":     e.Quantity,
		"image_ref":    e.ImageRef,
		"updated_at":   now,
	})
	if res.Error != nil {
		return domain.Equipment{}, domain.NewStorageError("catalog.update", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.Equipment{}, domain.ErrNotFound
	}
	e.UpdatedAt = now
	return e, nil
}

// CompareAndSetQuantity writes next only if the stored quantity still equals
// expected. It reports whether the row was changed.
func (r *Repository) CompareAndSetQuantity(tx *gorm.DB, id int64, expected, next int) (bool, error) {
	res := tx.Model(&Item{}).
		Where("id = ? AND quantity = ?", id, expected).
		Updates(map[string]any{"quantity": next, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) DeleteTx(tx *gorm.DB, id int64) error {
	if err := tx.Delete(&Item{}, id).Error; err != nil {
		return domain.NewStorageError("catalog.delete", err)
	}
	return nil
}

func (r *Repository) List(ctx context.Context, p query.Predicate) ([]domain.Equipment, error) {
	var rows []Item
	err := r.db.WithContext(ctx).Model(&Item{}).
		Scopes(p.Scope(columns)).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, domain.NewStorageError("catalog.list", err)
	}

	out := make([]domain.Equipment, 0, len(rows))
	for i := range rows {
		out = append(out, toDomainEquipment(&rows[i]))
	}
	return out, nil
}

func (r *Repository) ClearAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Item{})
	if res.Error != nil {
		return 0, domain.NewStorageError("catalog.clear", res.Error)
	}
	return res.RowsAffected, nil
}
