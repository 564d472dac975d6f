package history

import (
	"strings"
	"time"

	"equipmarket/internal/domain"
	"equipmarket/internal/query"
)

type Action string

const (
	ActionAdded    Action = "Added"
	ActionEdited   Action = "Edited"
	ActionRemoved  Action = "Removed"
	ActionReserved Action = "Reserved"
	ActionDepleted Action = "Depleted"
)

var actionLabels = map[Action]string{
	ActionAdded:    "Добавлено",
	ActionEdited:   "Изменено",
	ActionRemoved:  "Удалено",
	ActionReserved: "Забронировано",
	ActionDepleted: "Товар закончился",
}

func Actions() []Action {
	return []Action{ActionAdded, ActionEdited, ActionRemoved, ActionReserved, ActionDepleted}
}

func (a Action) Valid() bool {
	_, ok := actionLabels[a]
	return ok
}

// Label is the display caption shown to operators.
func (a Action) Label() string {
	return actionLabels[a]
}

// ParseAction accepts the enum value case-insensitively or its display label.
func ParseAction(s string) (Action, error) {
	s = strings.TrimSpace(s)
	for _, a := range Actions() {
		if strings.EqualFold(string(a), s) || a.Label() == s {
			return a, nil
		}
	}
	return "", domain.NewValidationError("action", "unknown action %q", s)
}

// Entry is an immutable ledger record. EquipmentID may refer to a row that no
// longer exists; the snapshot columns keep the record readable.
type Entry struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	EquipmentID   int64     `gorm:"not null;index" json:"equipment_id"`
	EquipmentName string    `gorm:"size:255;not null" json:"equipment_name"`
	Model         string    `gorm:"size:255;not null" json:"model"`
	Manufacturer  string    `gorm:"size:255;not null" json:"manufacturer"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	Price         int       `gorm:"not null" json:"price"`
	Quantity      int       `gorm:"not null" json:"quantity"`
	ImageRef      *string   `gorm:"size:512" json:"image_ref,omitempty"`
	Seller        *string   `gorm:"size:255" json:"seller,omitempty"`
	Buyer         *string   `gorm:"size:255" json:"buyer,omitempty"`
	Action        Action    `gorm:"size:32;not null;index" json:"action"`
	CreatedAt     time.Time `gorm:"not null;index" json:"created_at"`
}

func (Entry) TableName() string { return "history" }

// Snapshot copies the equipment's current values into a new entry.
func Snapshot(e domain.Equipment, action Action) Entry {
	return Entry{
		EquipmentID:   e.ID,
		EquipmentName: e.Name,
		Model:         e.Model,
		Manufacturer:  e.Manufacturer,
		Description:   e.Description,
		Price:         e.Price,
		Quantity:      e.Quantity,
		ImageRef:      e.ImageRef,
		Action:        action,
	}
}

func (e Entry) WithSeller(name string) Entry {
	e.Seller = &name
	return e
}

func (e Entry) WithBuyer(name string) Entry {
	e.Buyer = &name
	return e
}

func (e Entry) Row() query.Row {
	return query.Row{
		Name:         e.EquipmentName,
		Manufacturer: e.Manufacturer,
		Price:        e.Price,
		Quantity:     e.Quantity,
		Action:       string(e.Action),
	}
}

var columns = query.Columns{
	query.FieldName:         "equipment_name",
	query.FieldManufacturer: "manufacturer",
	query.FieldPrice:        "price",
	query.FieldQuantity:     "quantity",
	query.FieldAction:       "action",
}
