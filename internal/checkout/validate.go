package checkout

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"ms-storefront/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeRequest parses and validates a checkout body. Every failure is a
// validation *CheckoutError naming the offending fields.
func DecodeRequest(body io.Reader) (models.CheckoutRequest, error) {
	var req models.CheckoutRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return models.CheckoutRequest{}, validationError(fmt.Errorf("malformed json: %w", err))
	}
	if err := ValidateRequest(req); err != nil {
		return models.CheckoutRequest{}, err
	}
	return req, nil
}

// ValidateRequest checks the struct tags on an already decoded request.
func ValidateRequest(req models.CheckoutRequest) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return validationError(err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag()))
	}
	return validationError(fmt.Errorf("invalid fields: %s", strings.Join(fields, ", ")))
}
