package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StatusReceived is the lifecycle tag stamped on every new quotation. No
// component transitions it afterwards; it exists as a seam for a future
// review workflow.
const StatusReceived = "received"

// Quotation is a single supplier price-quote submission.
type Quotation struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CompanyName   string             `bson:"company_name" json:"companyName"`
	ContactPerson string             `bson:"contact_person" json:"contactPerson"`
	Email         string             `bson:"email" json:"email"`
	SupplierModel string             `bson:"supplier_model" json:"supplierModel"`

	Power    float64 `bson:"power" json:"power"`
	FobPrice float64 `bson:"fob_price" json:"fobPrice"`

	// Optional numerics stay nil when the form omitted them or sent
	// something unparsable. They are never serialized as NaN.
	MinTemp      *float64 `bson:"min_temp,omitempty" json:"minTemp"`
	MaxTemp      *float64 `bson:"max_temp,omitempty" json:"maxTemp"`
	BasketVolume *float64 `bson:"basket_volume,omitempty" json:"basketVolume"`
	UnitCBM      *float64 `bson:"unit_cbm,omitempty" json:"unitCbm"`
	QtyBaskets   *int     `bson:"qty_baskets,omitempty" json:"qtyBaskets"`
	QtyPerCarton *int     `bson:"qty_per_carton,omitempty" json:"qtyPerCarton"`
	Qty40HC      *int     `bson:"qty_40hc,omitempty" json:"qty40hc"`

	DeliveryTime int `bson:"delivery_time" json:"deliveryTime"`
	MOQ          int `bson:"moq" json:"moq"`

	RemovableBasket bool `bson:"removable_basket" json:"removableBasket"`
	ViewWindow      bool `bson:"view_window" json:"viewWindow"`

	FobCity      string `bson:"fob_city,omitempty" json:"fobCity"`
	PaymentTerms string `bson:"payment_terms" json:"paymentTerms"`
	CartonSize   string `bson:"carton_size,omitempty" json:"cartonSize"`

	ImageFilename *string `bson:"image_filename,omitempty" json:"imageFilename"`
	ImageURL      *string `bson:"image_url,omitempty" json:"imageUrl"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	Status    string    `bson:"status" json:"status"`
}

// ValidationError reports the first form field that was missing or
// unparsable. The HTTP layer maps it to a 400 response.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q is required or invalid", e.Field)
}

// QuotationForm carries the raw multipart form fields as submitted by the
// browser. Parse turns it into a fully typed Quotation or fails with a
// ValidationError; there is no in-between partially typed state.
type QuotationForm struct {
	CompanyName     string `form:"companyName"`
	ContactPerson   string `form:"contactPerson"`
	Email           string `form:"email"`
	SupplierModel   string `form:"supplierModel"`
	Power           string `form:"power"`
	MinTemp         string `form:"minTemp"`
	MaxTemp         string `form:"maxTemp"`
	QtyBaskets      string `form:"qtyBaskets"`
	BasketVolume    string `form:"basketVolume"`
	RemovableBasket string `form:"removableBasket"`
	ViewWindow      string `form:"viewWindow"`
	FobPrice        string `form:"fobPrice"`
	FobCity         string `form:"fobCity"`
	PaymentTerms    string `form:"paymentTerms"`
	DeliveryTime    string `form:"deliveryTime"`
	MOQ             string `form:"moq"`
	CartonSize      string `form:"cartonSize"`
	QtyPerCarton    string `form:"qtyPerCarton"`
	UnitCBM         string `form:"unitCbm"`
	Qty40HC         string `form:"qty40hc"`
}

// Parse validates required fields and normalizes numeric and boolean
// values. Optional numerics that fail to parse become absent rather than
// an error; required ones fail validation.
func (f QuotationForm) Parse() (*Quotation, error) {
	required := []struct {
		field string
		value string
	}{
		{"companyName", f.CompanyName},
		{"contactPerson", f.ContactPerson},
		{"email", f.Email},
		{"supplierModel", f.SupplierModel},
		{"paymentTerms", f.PaymentTerms},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, &ValidationError{Field: r.field}
		}
	}

	power, err := requiredFloat("power", f.Power)
	if err != nil {
		return nil, err
	}
	fobPrice, err := requiredFloat("fobPrice", f.FobPrice)
	if err != nil {
		return nil, err
	}
	deliveryTime, err := requiredInt("deliveryTime", f.DeliveryTime)
	if err != nil {
		return nil, err
	}
	moq, err := requiredInt("moq", f.MOQ)
	if err != nil {
		return nil, err
	}

	return &Quotation{
		CompanyName:     strings.TrimSpace(f.CompanyName),
		ContactPerson:   strings.TrimSpace(f.ContactPerson),
		Email:           strings.TrimSpace(f.Email),
		SupplierModel:   strings.TrimSpace(f.SupplierModel),
		Power:           power,
		FobPrice:        fobPrice,
		DeliveryTime:    deliveryTime,
		MOQ:             moq,
		MinTemp:         optionalFloat(f.MinTemp),
		MaxTemp:         optionalFloat(f.MaxTemp),
		BasketVolume:    optionalFloat(f.BasketVolume),
		UnitCBM:         optionalFloat(f.UnitCBM),
		QtyBaskets:      optionalInt(f.QtyBaskets),
		QtyPerCarton:    optionalInt(f.QtyPerCarton),
		Qty40HC:         optionalInt(f.Qty40HC),
		RemovableBasket: parseBool(f.RemovableBasket),
		ViewWindow:      parseBool(f.ViewWindow),
		FobCity:         strings.TrimSpace(f.FobCity),
		PaymentTerms:    strings.TrimSpace(f.PaymentTerms),
		CartonSize:      strings.TrimSpace(f.CartonSize),
		Status:          StatusReceived,
	}, nil
}

func requiredFloat(field, value string) (float64, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, &ValidationError{Field: field}
	}
	return n, nil
}

func requiredInt(field, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, &ValidationError{Field: field}
	}
	return n, nil
}

func optionalFloat(value string) *float64 {
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return nil
	}
	return &n
}

func optionalInt(value string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return nil
	}
	return &n
}

// Only the literal string "true" (any casing) counts as true; everything
// else, including absence, is false.
func parseBool(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), "true")
}
