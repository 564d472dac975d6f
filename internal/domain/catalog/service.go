package catalog

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"

	"equipmarket/internal/domain"
	"equipmarket/internal/domain/history"
	"equipmarket/internal/events"
	"equipmarket/internal/pkg/validator"
	"equipmarket/internal/query"
)

// ImageChecker is the part of the image store the catalog depends on.
type ImageChecker interface {
	Exists(ref string) bool
	PreviewURL(ref string) string
}

type Service struct {
	repo      *Repository
	ledger    history.Ledger
	images    ImageChecker
	cache     ListCache
	publisher events.Publisher
}

type Option func(*Service)

func WithImages(images ImageChecker) Option {
	return func(s *Service) { s.images = images }
}

func WithCache(cache ListCache) Option {
	return func(s *Service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func NewService(repo *Repository, ledger history.Ledger, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		ledger:    ledger,
		cache:     NoopCache{},
		publisher: events.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) validate(req EquipmentRequest) (EquipmentRequest, error) {
	req = req.normalized()
	if err := validator.Struct(req); err != nil {
		return req, err
	}
	if req.ImageRef != nil && s.images != nil && !s.images.Exists(*req.ImageRef) {
		return req, domain.NewValidationError("image_ref", "image %q does not exist", *req.ImageRef)
	}
	return req, nil
}

// Create stores a new item and records an Added entry in the same transaction.
func (s *Service) Create(ctx context.Context, session domain.Session, req EquipmentRequest) (domain.Equipment, error) {
	if !session.CanManageCatalog() {
		return domain.Equipment{}, domain.ErrForbidden
	}
	req, err := s.validate(req)
	if err != nil {
		return domain.Equipment{}, err
	}

	var created domain.Equipment
	err = s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err = s.repo.CreateTx(tx, req.toEquipment(0))
		if err != nil {
			return err
		}
		entry := history.Snapshot(created, history.ActionAdded).WithSeller(session.Actor())
		return s.ledger.AppendTx(tx, &entry)
	})
	if err != nil {
		return domain.Equipment{}, storageErr("catalog.create", err)
	}

	s.cache.Invalidate(ctx)
	events.Emit(ctx, s.publisher, events.FromEquipment(events.TypeAdded, created, session.Actor()))
	log.Printf("equipment_created id=%d actor=%s quantity=%d", created.ID, session.Actor(), created.Quantity)
	return created, nil
}

// Update replaces every field and records exactly one Edited entry.
func (s *Service) Update(ctx context.Context, session domain.Session, id int64, req EquipmentRequest) (domain.Equipment, error) {
	if !session.CanManageCatalog() {
		return domain.Equipment{}, domain.ErrForbidden
	}
	req, err := s.validate(req)
	if err != nil {
		return domain.Equipment{}, err
	}

	var updated domain.Equipment
	err = s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.GetForUpdate(tx, id)
		if err != nil {
			return err
		}

		next := req.toEquipment(id)
		next.CreatedAt = current.CreatedAt
		updated, err = s.repo.UpdateTx(tx, next)
		if err != nil {
			return err
		}
		entry := history.Snapshot(updated, history.ActionEdited).WithSeller(session.Actor())
		return s.ledger.AppendTx(tx, &entry)
	})
	if err != nil {
		return domain.Equipment{}, storageErr("catalog.update", err)
	}

	s.cache.Invalidate(ctx)
	events.Emit(ctx, s.publisher, events.FromEquipment(events.TypeEdited, updated, session.Actor()))
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Equipment, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete is idempotent: deleting a missing id succeeds without writing.
func (s *Service) Delete(ctx context.Context, session domain.Session, id int64) error {
	if !session.CanManageCatalog() {
		return domain.ErrForbidden
	}

	var removed *domain.Equipment
	err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.GetForUpdate(tx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		entry := history.Snapshot(current, history.ActionRemoved).WithSeller(session.Actor())
		if err := s.ledger.AppendTx(tx, &entry); err != nil {
			return err
		}
		if err := s.repo.DeleteTx(tx, id); err != nil {
			return err
		}
		removed = &current
		return nil
	})
	if err != nil {
		return storageErr("catalog.delete", err)
	}
	if removed == nil {
		return nil
	}

	s.cache.Invalidate(ctx)
	events.Emit(ctx, s.publisher, events.FromEquipment(events.TypeRemoved, *removed, session.Actor()))
	log.Printf("equipment_removed id=%d actor=%s", id, session.Actor())
	return nil
}

// List returns matching items ordered by id.
func (s *Service) List(ctx context.Context, f query.EquipmentFilter) ([]domain.Equipment, error) {
	p, err := f.Predicate()
	if err != nil {
		return nil, err
	}

	items, key, hit := s.cache.Lookup(ctx, f)
	if hit {
		return items, nil
	}

	items, err = s.repo.List(ctx, p)
	if err != nil {
		return nil, err
	}
	s.cache.Store(ctx, key, items)
	return items, nil
}

// ListFor applies the session's visibility rule: buyers never see items
// that are out of stock.
func (s *Service) ListFor(ctx context.Context, session domain.Session, f query.EquipmentFilter) ([]domain.Equipment, error) {
	f.ExcludeZeroQuantity = !session.SeesOutOfStock()
	return s.List(ctx, f)
}

func (s *Service) ClearAll(ctx context.Context) (int64, error) {
	n, err := s.repo.ClearAll(ctx)
	if err != nil {
		return 0, err
	}
	s.cache.Invalidate(ctx)
	return n, nil
}

// InvalidateCache is called by writers outside this service, such as the
// reservation engine.
func (s *Service) InvalidateCache(ctx context.Context) {
	s.cache.Invalidate(ctx)
}

func (s *Service) PreviewURL(e domain.Equipment) string {
	if e.ImageRef == nil || s.images == nil {
		return ""
	}
	return s.images.PreviewURL(*e.ImageRef)
}

func (s *Service) Respond(e domain.Equipment) EquipmentResponse {
	return EquipmentResponse{Equipment: e, ImageURL: s.PreviewURL(e)}
}

// storageErr keeps domain errors intact and wraps anything else.
func storageErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrStorage) {
		return err
	}
	return domain.NewStorageError(op, err)
}
