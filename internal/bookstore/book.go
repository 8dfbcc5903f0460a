package bookstore

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Book is one catalog entry. Struct field order is the wire order of the
// backing file and of every HTTP response.
type Book struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name" validate:"required"`
	Category string  `json:"category" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
}

var validate = validator.New()

func (b Book) validateFields() error {
	if err := validate.Struct(b); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBook, err)
	}
	return nil
}

// BookPatch carries the fields of a partial update. A nil field keeps the
// current value. The id is never patchable.
type BookPatch struct {
	Name     *string  `json:"name"`
	Category *string  `json:"category"`
	Price    *float64 `json:"price"`
}

func (p BookPatch) apply(b Book) Book {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Category != nil {
		b.Category = *p.Category
	}
	if p.Price != nil {
		b.Price = *p.Price
	}
	return b
}
