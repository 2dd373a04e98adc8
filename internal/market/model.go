// Package market holds the product listings users publish for sale,
// exchange or donation, and the ratings they leave on them.
package market

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindSale     Kind = "venda"
	KindExchange Kind = "troca"
	KindDonation Kind = "doacao"
)

var Kinds = []Kind{KindSale, KindExchange, KindDonation}

func (k Kind) Valid() bool {
	switch k {
	case KindSale, KindExchange, KindDonation:
		return true
	}
	return false
}

type Status string

const (
	StatusAvailable Status = "disponivel"
	StatusSold      Status = "vendido"
	StatusExchanged Status = "trocado"
	StatusReserved  Status = "reservado"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusSold, StatusExchanged, StatusReserved:
		return true
	}
	return false
}

type Product struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Price          float64   `json:"price"`
	Description    string    `json:"description"`
	OwnerMatricula string    `json:"owner_matricula"`
	OwnerName      string    `json:"owner_name"`
	Kind           Kind      `json:"kind"`
	Status         Status    `json:"status"`
	Address        string    `json:"address,omitempty"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Located reports whether the product can be shown on a map.
func (p *Product) Located() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Rating is one user's score for one product. A second rating by the
// same user replaces the first.
type Rating struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	RaterMatricula string    `json:"rater_matricula"`
	Score          int       `json:"score"`
	Comment        string    `json:"comment,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// RatingSummary aggregates the ratings of a product. Average is rounded
// to one decimal and is 0 when Count is 0.
type RatingSummary struct {
	Average float64 `json:"rating_average"`
	Count   int     `json:"rating_count"`
}

type RatedProduct struct {
	Product
	RatingSummary
}

type Stats struct {
	TotalUsers      int          `json:"total_users"`
	TotalProducts   int          `json:"total_products"`
	AvailableByKind map[Kind]int `json:"available_by_kind"`
}

// Filter narrows a product listing. Zero fields match everything.
type Filter struct {
	Kind   Kind
	Status Status
	Owner  string
}

var (
	ErrNotFound     = errors.New("product not found")
	ErrForbidden    = errors.New("only the owner or an admin may change this product")
	ErrInvalidScore = errors.New("score must be between 1 and 5")
)

// ValidationError rejects a product input. Message is safe to show.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
