package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/go-playground/validator/v10"
)

func DecodeJSONBody(r *http.Request, dest any) error {

	body, err := io.ReadAll(r.Body)

	if err != nil {
		slog.Error("Failed to read request body",
			slog.String("error", err.Error()),
			slog.String("endpoint", r.URL.Path),
		)
		return fmt.Errorf("failed to read request body: %w", err)
	}

	defer r.Body.Close()

	if len(body) == 0 {
		slog.Warn("Empty request body", slog.String("endpoint", r.URL.Path))
		return errors.New("request body cannot be empty")
	}

	if err := json.Unmarshal(body, dest); err != nil {
		slog.Error("Failed to parse request JSON",
			slog.String("error", err.Error()),
			slog.String("endpoint", r.URL.Path),
		)
		return fmt.Errorf("invalid JSON format: %w", err)
	}

	return nil
}

// DecodeCheckoutForm accepts either a JSON body or a urlencoded form post.
func DecodeCheckoutForm(r *http.Request, form *models.CheckoutForm) error {

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return DecodeJSONBody(r, form)
	}

	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("invalid form body: %w", err)
	}

	*form = models.CheckoutForm{
		FullName:        r.PostForm.Get("full_name"),
		Email:           r.PostForm.Get("email"),
		Phone:           r.PostForm.Get("phone"),
		AddressLine1:    r.PostForm.Get("address_line1"),
		AddressLine2:    r.PostForm.Get("address_line2"),
		City:            r.PostForm.Get("city"),
		State:           r.PostForm.Get("state"),
		PostalCode:      r.PostForm.Get("postal_code"),
		Country:         r.PostForm.Get("country"),
		PaymentMethodID: r.PostForm.Get("payment_method_id"),
		ClientSecret:    r.PostForm.Get("client_secret"),
	}

	return nil
}

func ValidateStruct(validate *validator.Validate, data any) error {
	if err := validate.Struct(data); err != nil {
		if validationErrs, ok := err.(validator.ValidationErrors); ok {
			slog.Warn("Input validation failed",
				slog.String("error", validationErrs.Error()),
			)
			return fmt.Errorf("validation error: %w", validationErrs)

		} else {
			slog.Error("Unexpected validation error", slog.String("error", err.Error()))
			return fmt.Errorf("unexpected validation error: %w", err)
		}

	}
	return nil
}
