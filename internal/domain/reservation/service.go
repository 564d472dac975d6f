package reservation

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/gorm"

	"equipmarket/internal/domain"
	"equipmarket/internal/domain/history"
	"equipmarket/internal/events"
)

const maxBuyerLabel = 255

type Config struct {
	// LockTimeout bounds the wait for the per-equipment lock.
	LockTimeout time.Duration
	// RetryMaxElapsed bounds the total time spent retrying conflicts.
	RetryMaxElapsed time.Duration
}

func DefaultConfig() Config {
	return Config{LockTimeout: 3 * time.Second, RetryMaxElapsed: 2 * time.Second}
}

// Stock is the catalog storage the engine mutates.
type Stock interface {
	DB() *gorm.DB
	GetForUpdate(tx *gorm.DB, id int64) (domain.Equipment, error)
	CompareAndSetQuantity(tx *gorm.DB, id int64, expected, next int) (bool, error)
}

type CacheInvalidator interface {
	InvalidateCache(ctx context.Context)
}

type Request struct {
	EquipmentID int64
	Quantity    int
	Buyer       string
}

type Result struct {
	EquipmentID int64           `json:"equipment_id"`
	Reserved    int             `json:"reserved"`
	Remaining   int             `json:"remaining"`
	Depleted    bool            `json:"depleted"`
	Entries     []history.Entry `json:"entries"`
}

// Observer receives the outcome and duration of every Reserve call.
type Observer interface {
	ObserveReservation(outcome string, d time.Duration)
}

type Option func(*Service)

func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

type Service struct {
	stock     Stock
	ledger    history.Ledger
	locks     *KeyLock
	cfg       Config
	cache     CacheInvalidator
	publisher events.Publisher
	observer  Observer
}

func NewService(stock Stock, ledger history.Ledger, cfg Config, cache CacheInvalidator, publisher events.Publisher, opts ...Option) *Service {
	def := DefaultConfig()
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = def.LockTimeout
	}
	if cfg.RetryMaxElapsed <= 0 {
		cfg.RetryMaxElapsed = def.RetryMaxElapsed
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	s := &Service{
		stock:     stock,
		ledger:    ledger,
		locks:     NewKeyLock(),
		cfg:       cfg,
		cache:     cache,
		publisher: publisher,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reserve takes req.Quantity units of an item. The stock re-read, the
// validation, the ledger entries and the decrement commit together or not at
// all. Two identical requests reserve twice.
func (s *Service) Reserve(ctx context.Context, session domain.Session, req Request) (res Result, err error) {
	if s.observer != nil {
		start := time.Now()
		defer func() { s.observer.ObserveReservation(Outcome(err), time.Since(start)) }()
	}

	buyer, err := buyerLabel(session, req.Buyer)
	if err != nil {
		return Result{}, err
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.cfg.LockTimeout)
	release, err := s.locks.Acquire(lockCtx, req.EquipmentID)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		log.Printf("reservation_busy equipment_id=%d reason=lock_timeout", req.EquipmentID)
		return Result{}, domain.ErrBusy
	}
	defer release()

	var result Result
	attempt := 0
	op := func() error {
		attempt++
		result = Result{}
		err := s.stock.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.reserveTx(tx, session, req, buyer, &result)
		})
		if err == nil || isRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	b.MaxElapsedTime = s.cfg.RetryMaxElapsed

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return Result{}, s.classify(ctx, req, attempt, err)
	}

	if s.cache != nil {
		s.cache.InvalidateCache(ctx)
	}
	s.emit(ctx, result, buyer)
	log.Printf("reservation_ok equipment_id=%d quantity=%d remaining=%d depleted=%t buyer=%q attempts=%d",
		result.EquipmentID, result.Reserved, result.Remaining, result.Depleted, buyer, attempt)
	return result, nil
}

// Outcome names a Reserve result for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrBusy):
		return "busy"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "error"
}

func (s *Service) reserveTx(tx *gorm.DB, session domain.Session, req Request, buyer string, out *Result) error {
	current, err := s.stock.GetForUpdate(tx, req.EquipmentID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrUnavailable
	}
	if err != nil {
		return err
	}
	if current.Quantity <= 0 {
		return domain.ErrUnavailable
	}
	if req.Quantity < 1 || req.Quantity > current.Quantity {
		return &domain.QuantityError{Requested: req.Quantity, Available: current.Quantity}
	}

	remaining := current.Quantity - req.Quantity

	reserved := history.Snapshot(current, history.ActionReserved).WithBuyer(buyer)
	reserved.Quantity = req.Quantity
	if err := s.ledger.AppendTx(tx, &reserved); err != nil {
		return err
	}
	entries := []history.Entry{reserved}

	if remaining == 0 {
		// Depleted records the stock level just before this reservation.
		depleted := history.Snapshot(current, history.ActionDepleted).WithSeller(depletionActor(session))
		if err := s.ledger.AppendTx(tx, &depleted); err != nil {
			return err
		}
		entries = append(entries, depleted)
	}

	ok, err := s.stock.CompareAndSetQuantity(tx, req.EquipmentID, current.Quantity, remaining)
	if err != nil {
		return err
	}
	if !ok {
		return errConflict
	}

	*out = Result{
		EquipmentID: req.EquipmentID,
		Reserved:    req.Quantity,
		Remaining:   remaining,
		Depleted:    remaining == 0,
		Entries:     entries,
	}
	return nil
}

func (s *Service) classify(ctx context.Context, req Request, attempts int, err error) error {
	switch {
	case errors.Is(err, domain.ErrUnavailable),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrValidation):
		return err
	case ctx.Err() != nil:
		return ctx.Err()
	case isRetryable(err):
		log.Printf("reservation_busy equipment_id=%d reason=retries_exhausted attempts=%d error=%q", req.EquipmentID, attempts, err)
		return domain.ErrBusy
	}
	log.Printf("reservation_failed equipment_id=%d error=%q", req.EquipmentID, err)
	return domain.NewStorageError("reservation.reserve", err)
}

func (s *Service) emit(ctx context.Context, r Result, buyer string) {
	if len(r.Entries) == 0 {
		return
	}
	snap := r.Entries[0]
	ev := events.Event{
		Type:         events.TypeReserved,
		EquipmentID:  r.EquipmentID,
		Name:         snap.EquipmentName,
		Manufacturer: snap.Manufacturer,
		Price:        snap.Price,
		Quantity:     r.Remaining,
		Delta:        -r.Reserved,
		Actor:        buyer,
		At:           time.Now().UTC(),
	}
	evs := []events.Event{ev}
	if r.Depleted {
		dep := ev
		dep.Type = events.TypeDepleted
		dep.Delta = 0
		evs = append(evs, dep)
	}
	events.Emit(ctx, s.publisher, evs...)
}

// buyerLabel resolves the free-text buyer name. Signed-in users default to
// their username; anonymous buyers default to the guest label.
func buyerLabel(session domain.Session, label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		label = strings.TrimSpace(session.Username)
	}
	if label == "" {
		return domain.GuestLabel, nil
	}
	if utf8.RuneCountInString(label) > maxBuyerLabel {
		return "", domain.NewValidationError("buyer", "must be at most %d characters", maxBuyerLabel)
	}
	return label, nil
}

func depletionActor(session domain.Session) string {
	if session.CanManageCatalog() {
		return session.Actor()
	}
	return domain.SystemLabel
}
