package orders

import (
	"context"

	"github.com/angelmondragon/foodyzone-backend/internal/cart"
	"github.com/angelmondragon/foodyzone-backend/internal/pricing"
	"github.com/angelmondragon/foodyzone-backend/internal/repo"
	"github.com/angelmondragon/foodyzone-backend/pkg/db"
	"github.com/angelmondragon/foodyzone-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/foodyzone-backend/pkg/errors"
	"gorm.io/gorm"
)

type repository struct {
	repo.Base
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(conn)}
}

func (r *repository) Insert(ctx context.Context, order Order) error {
	record := toModel(order)
	err := r.Tx(ctx, func(tx *gorm.DB) error {
		// items are written explicitly below
		if err := tx.Omit("Items").Create(&record).Error; err != nil {
			return err
		}
		if len(record.Items) == 0 {
			return nil
		}
		return tx.Create(&record.Items).Error
	})
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order already exists")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id string) (Order, error) {
	var record models.Order
	err := r.DB(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("line_no ASC") }).
		Where("id = ?", id).
		First(&record).Error
	if db.IsNotFound(err) {
		return Order{}, pkgerrors.Newf(pkgerrors.CodeNotFound, "order %s not found", id)
	}
	if err != nil {
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return fromModel(record), nil
}

func (r *repository) ListBySession(ctx context.Context, sessionID string) ([]Order, error) {
	var records []models.Order
	err := r.DB(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("line_no ASC") }).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&records).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]Order, 0, len(records))
	for _, record := range records {
		out = append(out, fromModel(record))
	}
	return out, nil
}

func toModel(o Order) models.Order {
	items := make([]models.OrderLineItem, 0, len(o.Items))
	for i, item := range o.Items {
		items = append(items, models.OrderLineItem{
			OrderID:   o.ID,
			LineNo:    i + 1,
			ProductID: item.ProductID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	return models.Order{
		ID:              o.ID,
		SessionID:       o.SessionID,
		Status:          o.Status,
		DeliveryInfo:    o.Delivery,
		PaymentInfo:     o.Payment,
		DiscountPercent: o.Totals.DiscountPercent,
		Subtotal:        o.Totals.Subtotal,
		DeliveryFee:     o.Totals.DeliveryFee,
		Tax:             o.Totals.Tax,
		DiscountAmount:  o.Totals.DiscountAmount,
		Total:           o.Totals.Total,
		CreatedAt:       o.CreatedAt,
		Items:           items,
	}
}

func fromModel(m models.Order) Order {
	items := make([]cart.LineItem, 0, len(m.Items))
	count := 0
	for _, item := range m.Items {
		items = append(items, cart.LineItem{
			ProductID: item.ProductID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
		count += item.Quantity
	}
	return Order{
		ID:        m.ID,
		SessionID: m.SessionID,
		Status:    m.Status,
		Items:     items,
		Delivery:  m.DeliveryInfo,
		Payment:   m.PaymentInfo,
		Totals: pricing.Totals{
			ItemCount:       count,
			Subtotal:        m.Subtotal,
			DiscountPercent: m.DiscountPercent,
			DiscountAmount:  m.DiscountAmount,
			DeliveryFee:     m.DeliveryFee,
			Tax:             m.Tax,
			Total:           m.Total,
		},
		CreatedAt: m.CreatedAt.UTC(),
	}
}
