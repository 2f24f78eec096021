package types

import "github.com/angelmondragon/foodyzone-backend/pkg/enums"

// PickupLocation is where pickup orders are collected.
const PickupLocation = "Foody Zone Restaurant, 123 Food Street, Gourmet City"

// DeliveryInfo is the delivery step's captured data.
type DeliveryInfo struct {
	Type           enums.DeliveryType `json:"type"`
	Name           string             `json:"name"`
	Phone          string             `json:"phone"`
	Address        string             `json:"address,omitempty"`
	Apartment      string             `json:"apartment,omitempty"`
	City           string             `json:"city,omitempty"`
	ZipCode        string             `json:"zip_code,omitempty"`
	Instructions   string             `json:"instructions,omitempty"`
	DeliveryTime   enums.DeliveryTime `json:"delivery_time,omitempty"`
	PickupLocation string             `json:"pickup_location,omitempty"`
}

// PaymentSummary is the masked payment record kept on orders. Card numbers
// and CVVs are never stored.
type PaymentSummary struct {
	Method         enums.PaymentMethod `json:"method"`
	CardholderName string              `json:"cardholder_name,omitempty"`
	CardLast4      string              `json:"card_last4,omitempty"`
	Expiry         string              `json:"expiry,omitempty"`
}
