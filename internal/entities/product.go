package entities

import (
	"errors"
	"time"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// LocalizedText holds the bilingual (english/bangla) variants of a field.
type LocalizedText struct {
	EN string
	BN string
}

// SizeStock is one entry of a product's per-size inventory.
// Stock is never negative; it is decremented only by confirmed-order reconciliation.
type SizeStock struct {
	Size  string
	Stock int
}

type Product struct {
	ID            string
	Name          LocalizedText
	Description   LocalizedText
	Price         int64
	OriginalPrice int64
	Category      string
	Images        []string
	Sizes         []SizeStock
	Colors        []string
	Featured      bool
	Active        bool
	TotalSales    int
	Rating        float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SizeEntry returns the inventory entry matching size exactly.
func (p Product) SizeEntry(size string) (SizeStock, bool) {
	for _, s := range p.Sizes {
		if s.Size == size {
			return s, true
		}
	}
	return SizeStock{}, false
}
