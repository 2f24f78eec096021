package models

import "github.com/shopspring/decimal"

// OrderLineItem is a frozen copy of a cart line on a placed order.
type OrderLineItem struct {
	OrderID   string          `gorm:"column:order_id;primaryKey"`
	LineNo    int             `gorm:"column:line_no;primaryKey;autoIncrement:false"`
	ProductID string          `gorm:"column:product_id;not null"`
	Title     string          `gorm:"column:title;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(18,8);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
}

func (OrderLineItem) TableName() string { return "order_line_items" }
