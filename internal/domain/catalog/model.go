package catalog

import (
	"time"

	"equipmarket/internal/domain"
	"equipmarket/internal/query"
)

// Item is the persisted equipment row.
type Item struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Name         string    `gorm:"size:255;not null"`
	Model        string    `gorm:"size:255;not null"`
	Manufacturer string    `gorm:"size:255;not null;index"`
	Description  string    `gorm:"type:text;not null"`
	Price        int       `gorm:"not null;index"`
	Quantity     int       `gorm:"not null;check:chk_equipment_quantity_nonneg,quantity >= 0"`
	ImageRef     *string   `gorm:"size:512"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (Item) TableName() string { return "equipment" }

func toDomainEquipment(m *Item) domain.Equipment {
	return domain.Equipment{
		ID:           m.ID,
		Name:         m.Name,
		Model:        m.Model,
		Manufacturer: m.Manufacturer,
		Description:  m.Description,
		Price:        m.Price,
		Quantity:     m.Quantity,
		ImageRef:     m.ImageRef,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toItemModel(e domain.Equipment) *Item {
	return &Item{
		ID:           e.ID,
		Name:         e.Name,
		Model:        e.Model,
		Manufacturer: e.Manufacturer,
		Description:  e.Description,
		Price:        e.Price,
		Quantity:     e.Quantity,
		ImageRef:     e.ImageRef,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func RowOf(e domain.Equipment) query.Row {
	return query.Row{
		Name:         e.Name,
		Manufacturer: e.Manufacturer,
		Price:        e.Price,
		Quantity:     e.Quantity,
	}
}

var columns = query.Columns{
	query.FieldName:         "name",
	query.FieldManufacturer: "manufacturer",
	query.FieldPrice:        "price",
	query.FieldQuantity:     "quantity",
}
