package repo

import (
	"database/sql"
	"time"

	"github.com/deshiwear/storefront/internal/entities"

	"github.com/lib/pq"
)

type Product struct {
	ID            string          `db:"id"`
	NameEN        string          `db:"name_en"`
	NameBN        string          `db:"name_bn"`
	DescriptionEN sql.NullString  `db:"description_en"`
	DescriptionBN sql.NullString  `db:"description_bn"`
	Price         int64           `db:"price"`
	OriginalPrice sql.NullInt64   `db:"original_price"`
	Category      string          `db:"category"`
	Images        pq.StringArray  `db:"images"`
	Colors        pq.StringArray  `db:"colors"`
	Featured      bool            `db:"featured"`
	Active        bool            `db:"active"`
	TotalSales    int             `db:"total_sales"`
	Rating        sql.NullFloat64 `db:"rating"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

type ProductSize struct {
	ProductID string `db:"product_id"`
	Size      string `db:"size"`
	Stock     int    `db:"stock"`
	Position  int    `db:"position"`
}

type Order struct {
	OrderID        string         `db:"order_id"`
	UserID         string         `db:"user_id"`
	TotalAmount    int64          `db:"total_amount"`
	Discount       int64          `db:"discount"`
	ShippingFee    int64          `db:"shipping_fee"`
	FinalAmount    int64          `db:"final_amount"`
	Currency       string         `db:"currency"`
	PaymentMethod  string         `db:"payment_method"`
	PaymentStatus  string         `db:"payment_status"`
	OrderStatus    string         `db:"order_status"`
	TransactionID  sql.NullString `db:"transaction_id"`
	PaymentRef     sql.NullString `db:"payment_ref"`
	PaidAmount     int64          `db:"paid_amount"`
	IdempotencyKey sql.NullString `db:"idempotency_key"`

	ShipName       string `db:"ship_name"`
	ShipPhone      string `db:"ship_phone"`
	ShipDivision   string `db:"ship_division"`
	ShipDistrict   string `db:"ship_district"`
	ShipUpazila    string `db:"ship_upazila"`
	ShipAddress    string `db:"ship_address"`
	ShipPostalCode string `db:"ship_postal_code"`

	TrackingNumber    sql.NullString `db:"tracking_number"`
	Carrier           sql.NullString `db:"carrier"`
	EstimatedDelivery sql.NullTime   `db:"estimated_delivery"`
	Notes             sql.NullString `db:"notes"`

	ReconciledAt sql.NullTime `db:"reconciled_at"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

type OrderItem struct {
	ID        int64          `db:"id"`
	OrderID   string         `db:"order_id"`
	ProductID string         `db:"product_id"`
	NameEN    string         `db:"name_en"`
	NameBN    string         `db:"name_bn"`
	Quantity  int            `db:"quantity"`
	UnitPrice int64          `db:"unit_price"`
	Size      sql.NullString `db:"size"`
	Color     sql.NullString `db:"color"`
	Image     sql.NullString `db:"image"`
}

func ProductToEntity(p Product, sizes []ProductSize) entities.Product {
	out := entities.Product{
		ID: p.ID,
		Name: entities.LocalizedText{
			EN: p.NameEN,
			BN: p.NameBN,
		},
		Description: entities.LocalizedText{
			EN: nullStringToString(p.DescriptionEN),
			BN: nullStringToString(p.DescriptionBN),
		},
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice.Int64,
		Category:      p.Category,
		Images:        []string(p.Images),
		Colors:        []string(p.Colors),
		Featured:      p.Featured,
		Active:        p.Active,
		TotalSales:    p.TotalSales,
		Rating:        p.Rating.Float64,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}

	if len(sizes) > 0 {
		out.Sizes = make([]entities.SizeStock, 0, len(sizes))
		for _, s := range sizes {
			out.Sizes = append(out.Sizes, entities.SizeStock{Size: s.Size, Stock: s.Stock})
		}
	}

	return out
}

func ItemToEntity(i OrderItem) entities.OrderItem {
	return entities.OrderItem{
		ProductID: i.ProductID,
		Name:      entities.LocalizedText{EN: i.NameEN, BN: i.NameBN},
		Quantity:  i.Quantity,
		UnitPrice: i.UnitPrice,
		Size:      nullStringToString(i.Size),
		Color:     nullStringToString(i.Color),
		Image:     nullStringToString(i.Image),
	}
}

func OrderToEntity(o Order, items []OrderItem) entities.Order {
	order := entities.Order{
		OrderID:        o.OrderID,
		UserID:         o.UserID,
		TotalAmount:    o.TotalAmount,
		Discount:       o.Discount,
		ShippingFee:    o.ShippingFee,
		FinalAmount:    o.FinalAmount,
		Currency:       o.Currency,
		PaymentMethod:  entities.PaymentMethod(o.PaymentMethod),
		PaymentStatus:  entities.PaymentStatus(o.PaymentStatus),
		OrderStatus:    entities.OrderStatus(o.OrderStatus),
		TransactionID:  nullStringToString(o.TransactionID),
		PaymentRef:     nullStringToString(o.PaymentRef),
		PaidAmount:     o.PaidAmount,
		IdempotencyKey: nullStringToString(o.IdempotencyKey),
		ShippingAddress: entities.ShippingAddress{
			Name:       o.ShipName,
			Phone:      o.ShipPhone,
			Division:   o.ShipDivision,
			District:   o.ShipDistrict,
			Upazila:    o.ShipUpazila,
			Address:    o.ShipAddress,
			PostalCode: o.ShipPostalCode,
		},
		TrackingNumber: nullStringToString(o.TrackingNumber),
		Carrier:        nullStringToString(o.Carrier),
		Notes:          nullStringToString(o.Notes),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}

	if o.EstimatedDelivery.Valid {
		t := o.EstimatedDelivery.Time
		order.EstimatedDelivery = &t
	}
	if o.ReconciledAt.Valid {
		t := o.ReconciledAt.Time
		order.ReconciledAt = &t
	}

	if len(items) > 0 {
		order.Items = make([]entities.OrderItem, 0, len(items))
		for _, it := range items {
			order.Items = append(order.Items, ItemToEntity(it))
		}
	}

	return order
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt64(i int64) sql.NullInt64 {
	if i == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: i, Valid: true}
}

func nullFloat64(f float64) sql.NullFloat64 {
	if f == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
