package handler

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-playground/validator/v10"

	"github.com/xenking/ggshop/internal/domain/stock"
	"github.com/xenking/ggshop/internal/domain/validation"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names in errors.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs struct tag validation and converts the first failure
// into a validation.Error.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.Wrap(err, "validate request")
	}
	fe := fieldErrs[0]
	return validation.New(fe.Field(), validationMessage(fe))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte", "min":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

// readInt accepts a JSON number or a numeric string.
func readInt(d *jx.Decoder) (int64, error) {
	if d.Next() == jx.String {
		s, err := d.Str()
		if err != nil {
			return 0, err
		}
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	}
	return d.Int64()
}

// variantFields holds the fields shared by every request naming a variant.
type variantFields struct {
	ProductID int64  `json:"productId" validate:"gt=0"`
	ColorName string `json:"colorName" validate:"required,max=50"`
	Size      string `json:"size" validate:"required,max=10"`
}

func (v *variantFields) key() stock.VariantKey {
	return stock.VariantKey{ProductID: v.ProductID, Color: v.ColorName, Size: v.Size}
}

// decodeField reads a variant field and reports whether key was one.
func (v *variantFields) decodeField(d *jx.Decoder, key string) (bool, error) {
	var err error
	switch key {
	case "productId":
		v.ProductID, err = readInt(d)
	case "colorName":
		v.ColorName, err = d.Str()
	case "size":
		v.Size, err = d.Str()
	default:
		return false, nil
	}
	return true, err
}

type checkStockRequest struct {
	variantFields
	Quantity int `json:"quantity" validate:"gte=1,lte=2147483647"`
}

func (r *checkStockRequest) Decode(d *jx.Decoder) error {
	r.Quantity = 1
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if ok, err := r.decodeField(d, string(key)); ok {
			return err
		}
		if string(key) == "quantity" {
			n, err := readInt(d)
			r.Quantity = int(n)
			return err
		}
		return d.Skip()
	})
}

type addToCartRequest struct {
	variantFields
	Quantity int `json:"quantity" validate:"gte=1,lte=2147483647"`
}

func (r *addToCartRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if ok, err := r.decodeField(d, string(key)); ok {
			return err
		}
		if string(key) == "quantity" {
			n, err := readInt(d)
			r.Quantity = int(n)
			return err
		}
		return d.Skip()
	})
}

type updateCartRequest struct {
	Quantity int `json:"quantity" validate:"gte=1,lte=2147483647"`
}

func (r *updateCartRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) == "quantity" {
			n, err := readInt(d)
			r.Quantity = int(n)
			return err
		}
		return d.Skip()
	})
}

type stockUpdateRequest struct {
	variantFields
	Quantity *int `json:"quantity" validate:"required,gte=0,lte=2147483647"`
}

func (r *stockUpdateRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if ok, err := r.decodeField(d, string(key)); ok {
			return err
		}
		if string(key) == "quantity" {
			n, err := readInt(d)
			q := int(n)
			r.Quantity = &q
			return err
		}
		return d.Skip()
	})
}

type stockAdjustRequest struct {
	variantFields
	Adjustment *int `json:"adjustment" validate:"required,gte=-2147483647,lte=2147483647"`
}

func (r *stockAdjustRequest) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if ok, err := r.decodeField(d, string(key)); ok {
			return err
		}
		if string(key) == "adjustment" {
			n, err := readInt(d)
			a := int(n)
			r.Adjustment = &a
			return err
		}
		return d.Skip()
	})
}
