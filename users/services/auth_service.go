package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"zaivio-client/apiclient"
	"zaivio-client/models"

	"go.uber.org/zap"
)

var ErrMissingAccessToken = errors.New("login response carried no access token")

// credentialGateway is what authentication needs beyond plain requests.
type credentialGateway interface {
	apiclient.Doer
	SetCredential(ctx context.Context, credential string) error
	ClearCredential(ctx context.Context) error
}

type AuthService struct {
	gateway credentialGateway
	logger  *zap.Logger
}

func NewAuthService(gateway credentialGateway, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{gateway: gateway, logger: logger}
}

// Login exchanges credentials for a bearer token and stores it. The refresh
// cookie the server sets lands in the gateway's cookie jar.
func (s *AuthService) Login(ctx context.Context, creds models.Credentials) (*models.LoginResult, error) {
	resp, err := s.gateway.Request(ctx, http.MethodPost, "/auth/login", creds, apiclient.WithoutRenewal())
	if err != nil {
		return nil, err
	}

	var result models.LoginResult
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	if result.AccessToken == "" {
		return nil, ErrMissingAccessToken
	}
	if err := s.gateway.SetCredential(ctx, result.AccessToken); err != nil {
		return nil, fmt.Errorf("store credential: %w", err)
	}

	s.logger.Info("Logged in", zap.String("email", creds.Email))
	return &result, nil
}

func (s *AuthService) Signup(ctx context.Context, creds models.Credentials) (*models.User, error) {
	resp, err := s.gateway.Request(ctx, http.MethodPost, "/auth/signup", creds, apiclient.WithoutRenewal())
	if err != nil {
		return nil, err
	}
	if resp.Status != "" && resp.Status != models.EnvelopeSuccess {
		msg := resp.Message
		if msg == "" {
			msg = "Failed to sign up"
		}
		return nil, errors.New(msg)
	}

	var user models.User
	if err := resp.Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout ends the server session. The local credential is cleared even when the call fails.
func (s *AuthService) Logout(ctx context.Context) error {
	_, reqErr := s.gateway.Request(ctx, http.MethodPost, "/auth/logout", nil, apiclient.WithoutRenewal())
	if err := s.gateway.ClearCredential(ctx); err != nil {
		return errors.Join(reqErr, fmt.Errorf("clear credential: %w", err))
	}
	return reqErr
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	_, err := s.gateway.Request(ctx, http.MethodPost, "/auth/forgot-password",
		map[string]string{"email": email}, apiclient.WithoutRenewal())
	return err
}

func (s *AuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	_, err := s.gateway.Request(ctx, http.MethodPost, "/auth/reset-password",
		map[string]string{"token": resetToken, "new_password": newPassword}, apiclient.WithoutRenewal())
	return err
}
