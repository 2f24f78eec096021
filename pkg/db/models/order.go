package models

import (
	"time"

	"github.com/angelmondragon/foodyzone-backend/pkg/enums"
	"github.com/angelmondragon/foodyzone-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Order is a placed order. Rows are never updated after insert.
type Order struct {
	ID              string               `gorm:"column:id;primaryKey"`
	SessionID       string               `gorm:"column:session_id;not null;index:idx_orders_session_created,priority:1"`
	Status          enums.OrderStatus    `gorm:"column:status;not null;default:'placed'"`
	DeliveryInfo    types.DeliveryInfo   `gorm:"column:delivery_info;type:text;serializer:json;not null"`
	PaymentInfo     types.PaymentSummary `gorm:"column:payment_info;type:text;serializer:json;not null"`
	DiscountPercent decimal.Decimal      `gorm:"column:discount_percent;type:numeric(7,4);not null"`
	Subtotal        decimal.Decimal      `gorm:"column:subtotal;type:numeric(18,8);not null"`
	DeliveryFee     decimal.Decimal      `gorm:"column:delivery_fee;type:numeric(18,8);not null"`
	Tax             decimal.Decimal      `gorm:"column:tax;type:numeric(18,8);not null"`
	DiscountAmount  decimal.Decimal      `gorm:"column:discount_amount;type:numeric(18,8);not null"`
	Total           decimal.Decimal      `gorm:"column:total;type:numeric(18,8);not null"`
	CreatedAt       time.Time            `gorm:"column:created_at;not null;index:idx_orders_session_created,priority:2"`
	Items           []OrderLineItem      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (Order) TableName() string { return "orders" }
