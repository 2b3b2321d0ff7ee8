package checkout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequest(t *testing.T) {
	valid := `{"eventId":"e1","tickets":[{"ticketId":"t1","quantity":2}],"customerName":"Anna","email":"anna@example.com","phone":"+7 900","promoCode":"TEN"}`

	req, err := DecodeRequest(strings.NewReader(valid))
	require.NoError(t, err)
	assert.Equal(t, "e1", req.EventID)
	assert.Equal(t, 2, req.Tickets[0].Quantity)
	assert.Equal(t, "+7 900", req.Phone)
	assert.Equal(t, "TEN", req.PromoCode)

	req, err = DecodeRequest(strings.NewReader(`{"eventId":"e1","tickets":[{"ticketId":"t1","quantity":1}],"customerName":"A","email":"a@b.co"}`))
	require.NoError(t, err)
	assert.Empty(t, req.PromoCode)
}

func TestDecodeRequestRejects(t *testing.T) {
	tests := map[string]string{
		"malformed json":   `{"eventId":`,
		"missing event":    `{"tickets":[{"ticketId":"t1","quantity":1}],"customerName":"A","email":"a@b.co"}`,
		"no tickets":       `{"eventId":"e1","tickets":[],"customerName":"A","email":"a@b.co"}`,
		"zero quantity":    `{"eventId":"e1","tickets":[{"ticketId":"t1","quantity":0}],"customerName":"A","email":"a@b.co"}`,
		"negative qty":     `{"eventId":"e1","tickets":[{"ticketId":"t1","quantity":-1}],"customerName":"A","email":"a@b.co"}`,
		"missing ticketId": `{"eventId":"e1","tickets":[{"quantity":1}],"customerName":"A","email":"a@b.co"}`,
		"empty name":       `{"eventId":"e1","tickets":[{"ticketId":"t1","quantity":1}],"customerName":"","email":"a@b.co"}`,
		"bad email":        `{"eventId":"e1","tickets":[{"ticketId":"t1","quantity":1}],"customerName":"A","email":"nope"}`,
		"quantity string":  `{"eventId":"e1","tickets":[{"ticketId":"t1","quantity":"2"}],"customerName":"A","email":"a@b.co"}`,
		"quantity above cap": `{"eventId":"e1","tickets":[{"ticketId":"t1","quantity":1000000000000000}],"customerName":"A","email":"a@b.co"}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeRequest(strings.NewReader(body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			ce := AsCheckoutError(err)
			assert.Equal(t, "invalid request", ce.PublicError)
		})
	}
}

func TestValidationErrorNamesFields(t *testing.T) {
	_, err := DecodeRequest(strings.NewReader(`{"eventId":"e1","tickets":[{"ticketId":"t1","quantity":0}],"customerName":"A","email":"x"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Quantity")
	assert.Contains(t, err.Error(), "Email")
}
