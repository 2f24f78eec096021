package checkout

import (
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/angelmondragon/foodyzone-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodyzone-backend/pkg/errors"
	"github.com/angelmondragon/foodyzone-backend/pkg/types"
	"github.com/go-playground/validator/v10"
)

var (
	expiryPattern  = regexp.MustCompile(`^\d{2}/\d{2}$`)
	cardSeparators = strings.NewReplacer(" ", "", "-", "")
	validate       = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("card_expiry", func(fl validator.FieldLevel) bool {
		return expiryPattern.MatchString(fl.Field().String())
	})
	return v
}

// PaymentInput is the payment form as submitted. Card number and CVV are held
// only until the order is placed.
type PaymentInput struct {
	Method         enums.PaymentMethod `json:"method"`
	CardNumber     string              `json:"card_number,omitempty"`
	CardholderName string              `json:"cardholder_name,omitempty"`
	Expiry         string              `json:"expiry,omitempty"`
	CVV            string              `json:"cvv,omitempty"`
	AcceptTerms    bool                `json:"accept_terms"`
}

type deliveryRules struct {
	Type         string `json:"type" validate:"required,oneof=delivery pickup"`
	Name         string `json:"name" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	Address      string `json:"address" validate:"required_if=Type delivery"`
	DeliveryTime string `json:"delivery_time" validate:"omitempty,oneof=asap 30 45 60 custom"`
}

type paymentRules struct {
	Method string `json:"method" validate:"required,oneof=card wallet upi cod"`
}

type cardRules struct {
	CardNumber     string `json:"card_number" validate:"len=16,number"`
	CardholderName string `json:"cardholder_name" validate:"min=3"`
	Expiry         string `json:"expiry" validate:"card_expiry"`
	CVV            string `json:"cvv" validate:"min=3,max=4,number"`
	AcceptTerms    bool   `json:"accept_terms" validate:"required"`
}

// NormalizeDelivery trims the captured fields. Pickup orders get the fixed
// pickup location and drop the street address.
func NormalizeDelivery(info types.DeliveryInfo) types.DeliveryInfo {
	out := types.DeliveryInfo{
		Type:         enums.DeliveryType(strings.ToLower(strings.TrimSpace(string(info.Type)))),
		Name:         strings.TrimSpace(info.Name),
		Phone:        strings.TrimSpace(info.Phone),
		Address:      strings.TrimSpace(info.Address),
		Apartment:    strings.TrimSpace(info.Apartment),
		City:         strings.TrimSpace(info.City),
		ZipCode:      strings.TrimSpace(info.ZipCode),
		Instructions: strings.TrimSpace(info.Instructions),
		DeliveryTime: enums.DeliveryTime(strings.ToLower(strings.TrimSpace(string(info.DeliveryTime)))),
	}
	if out.Type == "" {
		out.Type = enums.DeliveryTypeDelivery
	}
	if out.Type == enums.DeliveryTypePickup {
		out.Address = ""
		out.Apartment = ""
		out.City = ""
		out.ZipCode = ""
		out.PickupLocation = types.PickupLocation
	}
	return out
}

// ValidateDelivery checks the fields the delivery step requires.
func ValidateDelivery(info types.DeliveryInfo) error {
	info = NormalizeDelivery(info)
	return validationError("delivery details incomplete", validate.Struct(deliveryRules{
		Type:         string(info.Type),
		Name:         info.Name,
		Phone:        info.Phone,
		Address:      info.Address,
		DeliveryTime: string(info.DeliveryTime),
	}))
}

// ValidatePayment checks the payment form. Only cards carry further
// requirements: number, holder, expiry, CVV and accepted terms.
func ValidatePayment(in PaymentInput) error {
	in = normalizePayment(in)
	fields := map[string]string{}
	collect(fields, validate.Struct(paymentRules{Method: string(in.Method)}))
	if in.Method == enums.PaymentMethodCard {
		collect(fields, validate.Struct(cardRules{
			CardNumber:     in.CardNumber,
			CardholderName: in.CardholderName,
			Expiry:         in.Expiry,
			CVV:            in.CVV,
			AcceptTerms:    in.AcceptTerms,
		}))
	}
	if len(fields) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "payment details incomplete").WithDetails(map[string]any{
		"fields": sortedKeys(fields),
		"errors": fields,
	})
}

// Mask reduces a payment form to what may be shown or stored.
func (in PaymentInput) Mask() types.PaymentSummary {
	in = normalizePayment(in)
	summary := types.PaymentSummary{Method: in.Method}
	if in.Method != enums.PaymentMethodCard {
		return summary
	}
	summary.CardholderName = in.CardholderName
	summary.Expiry = in.Expiry
	if n := len(in.CardNumber); n >= 4 {
		summary.CardLast4 = in.CardNumber[n-4:]
	}
	return summary
}

func normalizePayment(in PaymentInput) PaymentInput {
	in.Method = enums.PaymentMethod(strings.ToLower(strings.TrimSpace(string(in.Method))))
	in.CardNumber = cardSeparators.Replace(strings.TrimSpace(in.CardNumber))
	in.CardholderName = strings.TrimSpace(in.CardholderName)
	in.Expiry = strings.TrimSpace(in.Expiry)
	in.CVV = strings.TrimSpace(in.CVV)
	return in
}

func validationError(message string, err error) error {
	if err == nil {
		return nil
	}
	fields := map[string]string{}
	collect(fields, err)
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]any{
		"fields": sortedKeys(fields),
		"errors": fields,
	})
}

func collect(dst map[string]string, err error) {
	if err == nil {
		return
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		dst["_"] = err.Error()
		return
	}
	for _, fe := range errs {
		dst[fe.Field()] = fieldMessage(fe)
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "len":
		return "must be " + fe.Param() + " digits"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "number":
		return "must contain digits only"
	case "card_expiry":
		return "must look like MM/YY"
	case "oneof":
		return "must be one of " + fe.Param()
	}
	return "is invalid"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
