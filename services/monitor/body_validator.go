package monitor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/go-playground/validator/v10"
)

func msgForTag(tag string) string {
	switch tag {
	case "required":
		return "is required"
	case "address":
		return "incorrect address"
	case "gte":
		return "must not be negative"
	}
	return ""
}

// IsAddress reports whether s is a base58 encoded 32 byte public key.
func IsAddress(s string) bool {
	_, err := solana.PublicKeyFromBase58(strings.TrimSpace(s))
	return err == nil
}

func Validate(data interface{}) error {
	validate := validator.New()

	_ = validate.RegisterValidation("address", func(fl validator.FieldLevel) bool {
		return IsAddress(fl.Field().String())
	})

	if err := validate.Struct(data); err != nil {
		if _, ok := err.(*validator.InvalidValidationError); ok {
			return errors.New("invalid request")
		}

		var out []string
		for _, err := range err.(validator.ValidationErrors) {
			out = append(out, fmt.Sprintf("%s - %s", err.Field(), msgForTag(err.Tag())))
		}

		return errors.New(strings.Join(out, ", "))
	}

	return nil
}
