package events

import (
	"context"
	"errors"
	"log"
	"time"

	"equipmarket/internal/domain"
	"equipmarket/internal/query"
)

type Type string

const (
	TypeAdded    Type = "equipment.added"
	TypeEdited   Type = "equipment.edited"
	TypeRemoved  Type = "equipment.removed"
	TypeReserved Type = "stock.reserved"
	TypeDepleted Type = "stock.depleted"
	TypeWiped    Type = "catalog.wiped"
)

// Event is published after the change it describes has committed.
type Event struct {
	Type         Type      `json:"type"`
	EquipmentID  int64     `json:"equipment_id,omitempty"`
	Name         string    `json:"name,omitempty"`
	Manufacturer string    `json:"manufacturer,omitempty"`
	Price        int       `json:"price,omitempty"`
	Quantity     int       `json:"quantity"`
	Delta        int       `json:"delta,omitempty"`
	Actor        string    `json:"actor,omitempty"`
	At           time.Time `json:"at"`
}

func FromEquipment(t Type, e domain.Equipment, actor string) Event {
	return Event{
		Type:         t,
		EquipmentID:  e.ID,
		Name:         e.Name,
		Manufacturer: e.Manufacturer,
		Price:        e.Price,
		Quantity:     e.Quantity,
		Actor:        actor,
		At:           time.Now().UTC(),
	}
}

func (e Event) Row() query.Row {
	return query.Row{
		Name:         e.Name,
		Manufacturer: e.Manufacturer,
		Price:        e.Price,
		Quantity:     e.Quantity,
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to every publisher. A failing sink does not stop
// the others.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Emit publishes and logs failures. Delivery is best effort: the change has
// already committed when events are emitted.
func Emit(ctx context.Context, p Publisher, evs ...Event) {
	if p == nil {
		return
	}
	for _, e := range evs {
		if err := p.Publish(ctx, e); err != nil {
			log.Printf("event_publish_failed type=%s equipment_id=%d error=%q", e.Type, e.EquipmentID, err)
		}
	}
}
