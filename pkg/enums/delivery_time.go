package enums

import "fmt"

// DeliveryTime is the requested delivery slot.
type DeliveryTime string

const (
	DeliveryTimeASAP      DeliveryTime = "asap"
	DeliveryTimeThirty    DeliveryTime = "30"
	DeliveryTimeFortyFive DeliveryTime = "45"
	DeliveryTimeSixty     DeliveryTime = "60"
	DeliveryTimeCustom    DeliveryTime = "custom"
)

var validDeliveryTimes = []DeliveryTime{
	DeliveryTimeASAP,
	DeliveryTimeThirty,
	DeliveryTimeFortyFive,
	DeliveryTimeSixty,
	DeliveryTimeCustom,
}

// String implements fmt.Stringer.
func (d DeliveryTime) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryTime.
func (d DeliveryTime) IsValid() bool {
	for _, candidate := range validDeliveryTimes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryTime converts raw input into a DeliveryTime.
func ParseDeliveryTime(value string) (DeliveryTime, error) {
	for _, candidate := range validDeliveryTimes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery time %q", value)
}
