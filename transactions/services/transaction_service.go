package services

import (
	"context"
	"errors"
	"net/http"

	"zaivio-client/apiclient"
	"zaivio-client/models"
)

var ErrNoTransactions = errors.New("at least one transaction id is required")

type TransactionService struct {
	api apiclient.Doer
}

func NewTransactionService(api apiclient.Doer) *TransactionService {
	return &TransactionService{api: api}
}

// Mine lists the caller's own redemption transactions.
func (s *TransactionService) Mine(ctx context.Context) ([]models.Transaction, error) {
	resp, err := s.api.Request(ctx, http.MethodGet, "/transaction/all", nil)
	if err != nil {
		return nil, err
	}
	return apiclient.DecodeList[models.Transaction](resp)
}

// All lists every user's transactions for admin approval.
func (s *TransactionService) All(ctx context.Context) ([]models.AdminTransaction, error) {
	resp, err := s.api.Request(ctx, http.MethodGet, "/transaction/admin/all", nil)
	if err != nil {
		return nil, err
	}
	return apiclient.DecodeList[models.AdminTransaction](resp)
}

func (s *TransactionService) Approve(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return ErrNoTransactions
	}
	_, err := s.api.Request(ctx, http.MethodPatch, "/transaction/admin/approve",
		models.ApproveTransactionsRequest{TransactionIDs: ids})
	return err
}
