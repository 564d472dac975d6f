package domain

import "time"

const (
	MinPrice    = 1
	MaxPrice    = 250000
	MinQuantity = 1
	MaxQuantity = 64
)

type Equipment struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Model        string    `json:"model"`
	Manufacturer string    `json:"manufacturer"`
	Description  string    `json:"description"`
	Price        int       `json:"price"`
	Quantity     int       `json:"quantity"`
	ImageRef     *string   `json:"image_ref,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (e Equipment) InStock() bool {
	return e.Quantity > 0
}
