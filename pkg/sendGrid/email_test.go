package sendGrid_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	sendGrid "github.com/aaravmahajanofficial/storefront-checkout/pkg/sendGrid"
	"github.com/sendgrid/sendgrid-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sendgridV3Payload struct {
	Personalizations []struct {
		To      []map[string]string `json:"to"`
		Subject string              `json:"subject"`
	} `json:"personalizations"`
	From    map[string]string `json:"from"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

func TestEmailService_Send(t *testing.T) {
	apiKey := "SG.test-api-key"
	fromEmail := "orders@example.com"
	fromName := "Storefront"

	confirmation := &models.EmailMessage{
		Recipient: "buyer@example.com",
		Subject:   "Order ORD-20240101-ABCDEF12 confirmed",
		Content:   "Thanks for your order.",
	}

	tests := []struct {
		name          string
		status        int
		expectedError string
	}{
		{name: "Success - Accepted", status: http.StatusAccepted},
		{name: "Failure - Bad Request", status: http.StatusBadRequest, expectedError: "failed to send email, status code: 400"},
		{name: "Failure - Server Error", status: http.StatusInternalServerError, expectedError: "failed to send email, status code: 500"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			var payload sendgridV3Payload
			var authHeader string

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				require.NoError(t, json.Unmarshal(body, &payload))

				authHeader = r.Header.Get("Authorization")
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			client := sendgrid.NewSendClient(apiKey)
			client.Request.BaseURL = server.URL

			service := sendGrid.NewEmailServiceWithClient(client, fromEmail, fromName)

			// Act
			err := service.Send(t.Context(), confirmation)

			// Assert
			if tc.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedError)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, "Bearer "+apiKey, authHeader)
			require.Len(t, payload.Personalizations, 1)
			assert.Equal(t, "buyer@example.com", payload.Personalizations[0].To[0]["email"])
			assert.Equal(t, confirmation.Subject, payload.Personalizations[0].Subject)
			assert.Equal(t, fromEmail, payload.From["email"])
			assert.Equal(t, fromName, payload.From["name"])
			require.Len(t, payload.Content, 1)
			assert.Equal(t, "text/plain", payload.Content[0].Type)
			assert.Equal(t, confirmation.Content, payload.Content[0].Value)
		})
	}
}
