package handler

import (
	"time"

	"github.com/deshiwear/storefront/internal/entities"
)

// LocalizedText is a bilingual field.
type LocalizedText struct {
	EN string `json:"en" validate:"required"`
	BN string `json:"bn" validate:"required"`
}

type SizeStock struct {
	Size  string `json:"size" validate:"required"`
	Stock int    `json:"stock" validate:"gte=0"`
}

type Product struct {
	ID            string        `json:"id"`
	Name          LocalizedText `json:"name"`
	Description   LocalizedText `json:"description"`
	Price         int64         `json:"price"`
	OriginalPrice int64         `json:"originalPrice,omitempty"`
	Category      string        `json:"category"`
	Images        []string      `json:"images,omitempty"`
	Sizes         []SizeStock   `json:"sizes,omitempty"`
	Colors        []string      `json:"colors,omitempty"`
	Featured      bool          `json:"featured"`
	Active        bool          `json:"active"`
	TotalSales    int           `json:"totalSales"`
	Rating        float64       `json:"rating,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

type ProductRequest struct {
	Name          LocalizedText `json:"name" validate:"required"`
	Description   LocalizedText `json:"description" validate:"required"`
	Price         int64         `json:"price" validate:"required,gte=0"`
	OriginalPrice int64         `json:"originalPrice" validate:"gte=0"`
	Category      string        `json:"category" validate:"required"`
	Images        []string      `json:"images"`
	Sizes         []SizeStock   `json:"sizes" validate:"required,min=1,dive"`
	Colors        []string      `json:"colors"`
	Featured      bool          `json:"featured"`
	Active        bool          `json:"active"`
}

type OrderItem struct {
	ProductID string        `json:"product"`
	Name      LocalizedText `json:"name"`
	Quantity  int           `json:"quantity"`
	Price     int64         `json:"price"`
	Size      string        `json:"size,omitempty"`
	Color     string        `json:"color,omitempty"`
	Image     string        `json:"image,omitempty"`
}

type ShippingAddress struct {
	Name       string `json:"name" validate:"required"`
	Phone      string `json:"phone" validate:"required,bd_mobile"`
	Division   string `json:"division" validate:"required"`
	District   string `json:"district" validate:"required"`
	Upazila    string `json:"upazila" validate:"required"`
	Address    string `json:"address" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
}

type Order struct {
	OrderID           string          `json:"orderId"`
	UserID            string          `json:"user"`
	Items             []OrderItem     `json:"items"`
	TotalAmount       int64           `json:"totalAmount"`
	Discount          int64           `json:"discount"`
	ShippingFee       int64           `json:"shippingFee"`
	FinalAmount       int64           `json:"finalAmount"`
	Currency          string          `json:"currency"`
	PaymentMethod     string          `json:"paymentMethod"`
	PaymentStatus     string          `json:"paymentStatus"`
	OrderStatus       string          `json:"orderStatus"`
	TransactionID     string          `json:"transactionId,omitempty"`
	PaidAmount        int64           `json:"paidAmount,omitempty"`
	ShippingAddress   ShippingAddress `json:"shippingAddress"`
	TrackingNumber    string          `json:"trackingNumber,omitempty"`
	Carrier           string          `json:"carrier,omitempty"`
	EstimatedDelivery *time.Time      `json:"estimatedDelivery,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

type CartLine struct {
	ProductID string `json:"product" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
	Size      string `json:"size" validate:"required"`
	Color     string `json:"color"`
}

type CreateOrderRequest struct {
	Items           []CartLine      `json:"items" validate:"required,min=1,dive"`
	ShippingAddress ShippingAddress `json:"shippingAddress" validate:"required"`
	PaymentMethod   string          `json:"paymentMethod" validate:"required,oneof=bkash nagad cod card"`
	Notes           string          `json:"notes"`
}

type UpdateOrderStatusRequest struct {
	OrderStatus       string     `json:"orderStatus" validate:"required,oneof=pending confirmed processing shipped delivered cancelled"`
	TrackingNumber    string     `json:"trackingNumber"`
	Carrier           string     `json:"carrier"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
}

type CreatePaymentRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}

type PaymentCallbackRequest struct {
	PaymentID string `json:"paymentID"`
	Status    string `json:"status"`
	OrderID   string `json:"orderID"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

func ProductEntityToJSON(p entities.Product) Product {
	out := Product{
		ID:            p.ID,
		Name:          LocalizedText{EN: p.Name.EN, BN: p.Name.BN},
		Description:   LocalizedText{EN: p.Description.EN, BN: p.Description.BN},
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Category:      p.Category,
		Images:        p.Images,
		Colors:        p.Colors,
		Featured:      p.Featured,
		Active:        p.Active,
		TotalSales:    p.TotalSales,
		Rating:        p.Rating,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	for _, s := range p.Sizes {
		out.Sizes = append(out.Sizes, SizeStock{Size: s.Size, Stock: s.Stock})
	}
	return out
}

func ProductRequestToEntity(req ProductRequest) entities.Product {
	out := entities.Product{
		Name:          entities.LocalizedText{EN: req.Name.EN, BN: req.Name.BN},
		Description:   entities.LocalizedText{EN: req.Description.EN, BN: req.Description.BN},
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Category:      req.Category,
		Images:        req.Images,
		Colors:        req.Colors,
		Featured:      req.Featured,
		Active:        req.Active,
	}
	for _, s := range req.Sizes {
		out.Sizes = append(out.Sizes, entities.SizeStock{Size: s.Size, Stock: s.Stock})
	}
	return out
}

func OrderEntityToJSON(o entities.Order) Order {
	items := make([]OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItem{
			ProductID: it.ProductID,
			Name:      LocalizedText{EN: it.Name.EN, BN: it.Name.BN},
			Quantity:  it.Quantity,
			Price:     it.UnitPrice,
			Size:      it.Size,
			Color:     it.Color,
			Image:     it.Image,
		})
	}

	return Order{
		OrderID:       o.OrderID,
		UserID:        o.UserID,
		Items:         items,
		TotalAmount:   o.TotalAmount,
		Discount:      o.Discount,
		ShippingFee:   o.ShippingFee,
		FinalAmount:   o.FinalAmount,
		Currency:      o.Currency,
		PaymentMethod: string(o.PaymentMethod),
		PaymentStatus: string(o.PaymentStatus),
		OrderStatus:   string(o.OrderStatus),
		TransactionID: o.TransactionID,
		PaidAmount:    o.PaidAmount,
		ShippingAddress: ShippingAddress{
			Name:       o.ShippingAddress.Name,
			Phone:      o.ShippingAddress.Phone,
			Division:   o.ShippingAddress.Division,
			District:   o.ShippingAddress.District,
			Upazila:    o.ShippingAddress.Upazila,
			Address:    o.ShippingAddress.Address,
			PostalCode: o.ShippingAddress.PostalCode,
		},
		TrackingNumber:    o.TrackingNumber,
		Carrier:           o.Carrier,
		EstimatedDelivery: o.EstimatedDelivery,
		Notes:             o.Notes,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

func OrderEntitiesToJSON(orders []entities.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderEntityToJSON(o))
	}
	return out
}
