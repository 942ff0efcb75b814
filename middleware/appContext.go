package middleware

import (
	"zaivio-client/token"

	"go.uber.org/zap"
)

// AppContext bundles the dependencies route middleware needs.
type AppContext struct {
	PasetoMaker token.Maker
	Logger      *zap.Logger
}
