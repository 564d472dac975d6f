package catalog

import (
	"strings"

	"equipmarket/internal/domain"
)

// EquipmentRequest is the input for create and update.
type EquipmentRequest struct {
	Name         string  `json:"name" validate:"notblank,max=255"`
	Model        string  `json:"model" validate:"notblank,max=255"`
	Manufacturer string  `json:"manufacturer" validate:"notblank,max=255"`
	Description  string  `json:"description" validate:"notblank"`
	Price        int     `json:"price" validate:"min=1,max=250000"`
	Quantity     int     `json:"quantity" validate:"min=1,max=64"`
	ImageRef     *string `json:"image_ref,omitempty" validate:"omitempty,max=512"`
}

func (r EquipmentRequest) normalized() EquipmentRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.Model = strings.TrimSpace(r.Model)
	r.Manufacturer = strings.TrimSpace(r.Manufacturer)
	r.Description = strings.TrimSpace(r.Description)
	if r.ImageRef != nil {
		ref := strings.TrimSpace(*r.ImageRef)
		if ref == "" {
			r.ImageRef = nil
		} else {
			r.ImageRef = &ref
		}
	}
	return r
}

func (r EquipmentRequest) toEquipment(id int64) domain.Equipment {
	return domain.Equipment{
		ID:           id,
		Name:         r.Name,
		Model:        r.Model,
		Manufacturer: r.Manufacturer,
		Description:  r.Description,
		Price:        r.Price,
		Quantity:     r.Quantity,
		ImageRef:     r.ImageRef,
	}
}

// EquipmentResponse adds the resolved preview URL.
type EquipmentResponse struct {
	domain.Equipment
	ImageURL string `json:"image_url,omitempty"`
}
