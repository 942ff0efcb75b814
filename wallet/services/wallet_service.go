package services

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"zaivio-client/apiclient"
	"zaivio-client/models"
)

var ErrEmptyWalletAddress = errors.New("wallet address is required")

type WalletService struct {
	api apiclient.Doer
}

func NewWalletService(api apiclient.Doer) *WalletService {
	return &WalletService{api: api}
}

func (s *WalletService) Get(ctx context.Context) (*models.Wallet, error) {
	return s.call(ctx, http.MethodGet, "/wallet/get_wallet", nil)
}

func (s *WalletService) Create(ctx context.Context) (*models.Wallet, error) {
	return s.call(ctx, http.MethodPost, "/wallet/create_wallet", nil)
}

// Update points the wallet at a new address. The backend takes it as a query parameter.
func (s *WalletService) Update(ctx context.Context, address string) (*models.Wallet, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrEmptyWalletAddress
	}
	return s.call(ctx, http.MethodPut, "/wallet/update_wallet", nil,
		apiclient.WithQuery(url.Values{"wallet_address": {address}}))
}

func (s *WalletService) call(ctx context.Context, method, path string, body any, opts ...apiclient.RequestOption) (*models.Wallet, error) {
	resp, err := s.api.Request(ctx, method, path, body, opts...)
	if err != nil {
		return nil, err
	}
	var wallet models.Wallet
	if err := resp.Decode(&wallet); err != nil {
		return nil, err
	}
	return &wallet, nil
}
