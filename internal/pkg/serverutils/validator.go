package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"ai-research-be/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
		}
		return apperr.Validation(strings.Join(msgs, "; "))
	}
	return apperr.Validation(err.Error())
}
