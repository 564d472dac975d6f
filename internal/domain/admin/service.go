package admin

import (
	"context"
	"log"
	"time"

	"equipmarket/internal/domain"
	"equipmarket/internal/events"
)

type Clearer interface {
	ClearAll(ctx context.Context) (int64, error)
}

type WipeResult struct {
	Equipment int64 `json:"equipment_deleted"`
	History   int64 `json:"history_deleted"`
}

// Service runs destructive maintenance on the whole marketplace.
type Service struct {
	catalog   Clearer
	ledger    Clearer
	publisher events.Publisher
}

func NewService(catalog, ledger Clearer, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{catalog: catalog, ledger: ledger, publisher: publisher}
}

// Wipe deletes every catalog row and then every history entry. The two
// deletes are independent: if the history delete fails after the catalog
// delete succeeded, a *domain.PartialFailureError is returned. If the catalog
// delete fails the ledger is not touched.
func (s *Service) Wipe(ctx context.Context, session domain.Session) (WipeResult, error) {
	if !session.IsAdmin() {
		return WipeResult{}, domain.ErrForbidden
	}

	var res WipeResult
	n, err := s.catalog.ClearAll(ctx)
	if err != nil {
		log.Printf("wipe_failed actor=%q step=catalog error=%q", session.Actor(), err)
		return res, domain.NewStorageError("admin.wipe.catalog", err)
	}
	res.Equipment = n

	n, err = s.ledger.ClearAll(ctx)
	if err != nil {
		log.Printf("wipe_partial actor=%q completed=catalog failed=history equipment_deleted=%d error=%q",
			session.Actor(), res.Equipment, err)
		events.Emit(ctx, s.publisher, s.wiped(session))
		return res, &domain.PartialFailureError{Completed: "catalog", Failed: "history", Err: err}
	}
	res.History = n

	log.Printf("wipe_ok actor=%q equipment_deleted=%d history_deleted=%d", session.Actor(), res.Equipment, res.History)
	events.Emit(ctx, s.publisher, s.wiped(session))
	return res, nil
}

func (s *Service) wiped(session domain.Session) events.Event {
	return events.Event{Type: events.TypeWiped, Actor: session.Actor(), At: time.Now().UTC()}
}
