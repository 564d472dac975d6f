package history

import (
	"context"

	"gorm.io/gorm"

	"equipmarket/internal/domain"
	"equipmarket/internal/query"
)

// Ledger is the append-only history store. It has no update operation.
type Ledger interface {
	Append(ctx context.Context, e *Entry) error
	AppendTx(tx *gorm.DB, e *Entry) error
	List(ctx context.Context, f query.HistoryFilter) ([]Entry, error)
	ForEquipment(ctx context.Context, equipmentID int64) ([]Entry, error)
	ClearAll(ctx context.Context) (int64, error)
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Append(ctx context.Context, e *Entry) error {
	return r.AppendTx(r.db.WithContext(ctx), e)
}

// AppendTx inserts within the caller's transaction.
func (r *Repository) AppendTx(tx *gorm.DB, e *Entry) error {
	if !e.Action.Valid() {
		return domain.NewValidationError("action", "unknown action %q", e.Action)
	}
	e.ID = 0
	if err := tx.Create(e).Error; err != nil {
		return domain.NewStorageError("history.append", err)
	}
	return nil
}

func (r *Repository) List(ctx context.Context, f query.HistoryFilter) ([]Entry, error) {
	if f.Action != "" {
		a, err := ParseAction(f.Action)
		if err != nil {
			return nil, err
		}
		f.Action = string(a)
	}

	p, err := f.Predicate()
	if err != nil {
		return nil, err
	}

	q := r.db.WithContext(ctx).Model(&Entry{}).
		Scopes(p.Scope(columns)).
		Order("created_at DESC").Order("id DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		if f.Limit == 0 {
			q = q.Limit(query.MaxLimit)
		}
		q = q.Offset(f.Offset)
	}

	entries := make([]Entry, 0)
	if err := q.Find(&entries).Error; err != nil {
		return nil, domain.NewStorageError("history.list", err)
	}
	return entries, nil
}

func (r *Repository) ForEquipment(ctx context.Context, equipmentID int64) ([]Entry, error) {
	entries := make([]Entry, 0)
	err := r.db.WithContext(ctx).
		Where("equipment_id = ?", equipmentID).
		Order("created_at DESC").Order("id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, domain.NewStorageError("history.for_equipment", err)
	}
	return entries, nil
}

func (r *Repository) ClearAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Entry{})
	if res.Error != nil {
		return 0, domain.NewStorageError("history.clear", res.Error)
	}
	return res.RowsAffected, nil
}
