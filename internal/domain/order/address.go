package order

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/your-org/flooring-store/internal/pkg/apperror"
)

// ShippingAddress is embedded into orders and checkout sessions
type ShippingAddress struct {
	FullName string `gorm:"size:100" json:"full_name" validate:"required,min=2,max=100"`
	Contact  string `gorm:"size:10" json:"contact" validate:"required,len=10,number"`
	Pincode  string `gorm:"size:6" json:"pincode" validate:"required,len=6,number"`
	Address  string `gorm:"size:500" json:"address" validate:"required,min=10,max=500"`
	Landmark string `gorm:"size:255" json:"landmark,omitempty" validate:"max=255"`
}

var addressValidator = validator.New()

var fieldNames = map[string]string{
	"FullName": "full_name",
	"Contact":  "contact",
	"Pincode":  "pincode",
	"Address":  "address",
	"Landmark": "landmark",
}

// Normalize trims surrounding whitespace from every field
func (a *ShippingAddress) Normalize() {
	a.FullName = strings.TrimSpace(a.FullName)
	a.Contact = strings.TrimSpace(a.Contact)
	a.Pincode = strings.TrimSpace(a.Pincode)
	a.Address = strings.TrimSpace(a.Address)
	a.Landmark = strings.TrimSpace(a.Landmark)
}

// Validate normalizes a and reports every malformed field at once
func (a *ShippingAddress) Validate() error {
	a.Normalize()

	err := addressValidator.Struct(a)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldNames[fe.StructField()]] = describe(fe)
	}
	return &apperror.ValidationError{Message: "invalid shipping address", Fields: fields}
}

func describe(fe validator.FieldError) string {
	switch fe.StructField() {
	case "Contact":
		return "must be a 10 digit phone number"
	case "Pincode":
		return "must be a 6 digit pincode"
	}
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	}
	return "is invalid"
}
