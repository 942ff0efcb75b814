package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrExpired = errors.New("token has expired")

// Subject identifies who a credential was issued to.
type Subject struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	Kind   string `json:"kind"`
}

// Token kinds issued by the development backend.
const (
	AccessKind  = "access"
	RefreshKind = "refresh"
)

type Payload struct {
	ID        uuid.UUID `json:"id"`
	Subject   Subject   `json:"subject"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiredAt time.Time `json:"expired_at"`
}

func NewPayload(subject Subject, duration time.Duration) (*Payload, error) {
	if subject.Email == "" {
		return nil, errors.New("email cannot be empty")
	}
	if duration <= 0 {
		return nil, errors.New("duration must be positive")
	}

	tokenID, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}

	issuedAt := time.Now().UTC()
	return &Payload{
		ID:        tokenID,
		Subject:   subject,
		IssuedAt:  issuedAt,
		ExpiredAt: issuedAt.Add(duration),
	}, nil
}

func (payload *Payload) Valid() error {
	if time.Now().UTC().After(payload.ExpiredAt) {
		return ErrExpired
	}
	return nil
}

func (p *Payload) String() string {
	return fmt.Sprintf("ID: %s, UserID: %d, Email: %s, Kind: %s, ExpiredAt: %s", p.ID, p.Subject.UserID, p.Subject.Email, p.Subject.Kind, p.ExpiredAt)
}
