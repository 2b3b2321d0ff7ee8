package pass

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"ms-storefront/internal/models"

	"github.com/skip2/go-qrcode"
)

var ErrInvalidCode = errors.New("invalid pass code")

// Pass is the payload sealed into an order's QR code.
type Pass struct {
	OrderID  string    `json:"orderId"`
	EventID  string    `json:"eventId"`
	Email    string    `json:"email"`
	Tickets  int       `json:"tickets"`
	IssuedAt time.Time `json:"issuedAt"`
}

func FromOrder(o *models.Order, issuedAt time.Time) Pass {
	tickets := 0
	for _, item := range o.Items {
		tickets += item.Quantity
	}
	return Pass{
		OrderID:  o.ID,
		EventID:  o.EventID,
		Email:    o.Email,
		Tickets:  tickets,
		IssuedAt: issuedAt.UTC(),
	}
}

// Generator seals passes with AES-GCM under a key derived from a shared secret.
type Generator struct {
	aead cipher.AEAD
}

func NewGenerator(secret string) (*Generator, error) {
	if secret == "" {
		return nil, errors.New("pass secret is empty")
	}
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Generator{aead: aead}, nil
}

// Seal returns the URL-safe code printed in the QR image.
func (g *Generator) Seal(p Pass) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, g.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := g.aead.Seal(nonce, nonce, data, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Tampered or foreign codes yield ErrInvalidCode.
func (g *Generator) Open(code string) (*Pass, error) {
	raw, err := base64.RawURLEncoding.DecodeString(code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}
	size := g.aead.NonceSize()
	if len(raw) < size {
		return nil, fmt.Errorf("%w: too short", ErrInvalidCode)
	}

	data, err := g.aead.Open(nil, raw[:size], raw[size:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}

	var p Pass
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}
	return &p, nil
}

// PNG renders the sealed pass as a 256px QR image.
func (g *Generator) PNG(p Pass) ([]byte, error) {
	code, err := g.Seal(p)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(code, qrcode.Medium, 256)
}
