package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// PRICE goes over the wire as a JSON number, not a quoted string.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a row of the PRODUCTS table.
type Product struct {
	ID    int             `json:"PRODUCTID" gorm:"column:PRODUCTID;primaryKey;autoIncrement"`
	Name  string          `json:"PRODUCTNAME" gorm:"column:PRODUCTNAME;type:varchar(100);not null"`
	Price decimal.Decimal `json:"PRICE" gorm:"column:PRICE;type:decimal(10,2);not null"`
	Stock int             `json:"STOCK" gorm:"column:STOCK;not null"`
}

// TableName keeps the table name of the existing schema.
func (Product) TableName() string {
	return "PRODUCTS"
}

// ProductInput is the request body of create and update.
// Price and Stock are pointers so that a missing field fails validation
// while an explicit zero stock is still accepted.
type ProductInput struct {
	Name  string           `json:"PRODUCTNAME" validate:"required,max=100"`
	Price *decimal.Decimal `json:"PRICE" validate:"required,gt=0"`
	Stock *int             `json:"STOCK" validate:"required,gte=0"`
}

// ToProduct converts a validated input into a Product with the given ID.
func (in ProductInput) ToProduct(id int) *Product {
	p := &Product{ID: id, Name: in.Name}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	return p
}

// Product event types.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// ProductEvent is published after a successful write.
type ProductEvent struct {
	Event      string          `json:"event"`
	ProductID  int             `json:"PRODUCTID"`
	Name       string          `json:"PRODUCTNAME,omitempty"`
	Price      decimal.Decimal `json:"PRICE"`
	Stock      int             `json:"STOCK"`
	OccurredAt time.Time       `json:"occurred_at"`
}
