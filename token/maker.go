package token

import "time"

// Maker creates and verifies credentials for the development backend.
type Maker interface {
	CreateToken(subject Subject, duration time.Duration) (string, error)

	VerifyToken(token string) (*Payload, error)
}
