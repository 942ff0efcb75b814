package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"zaivio-client/apiclient"
	"zaivio-client/models"
)

var ErrNoRecords = errors.New("no records to create")

type UserService struct {
	api apiclient.Doer
}

func NewUserService(api apiclient.Doer) *UserService {
	return &UserService{api: api}
}

func (s *UserService) Current(ctx context.Context) (*models.User, error) {
	resp, err := s.api.Request(ctx, http.MethodGet, "/users/get", nil)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := resp.Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) All(ctx context.Context) ([]models.User, error) {
	resp, err := s.api.Request(ctx, http.MethodGet, "/users/all", nil)
	if err != nil {
		return nil, err
	}
	return apiclient.DecodeList[models.User](resp)
}

// BulkCreate submits records in one call; the server accepts or rejects each record on its own.
func (s *UserService) BulkCreate(ctx context.Context, records []models.ImportRecord) (*apiclient.Response, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return s.api.Request(ctx, http.MethodPost, "/users/bulk/create", records)
}

func (s *UserService) UpdateStatus(ctx context.Context, update models.UserStatusUpdate) error {
	_, err := s.api.Request(ctx, http.MethodPatch, "/users/update", update)
	return err
}

func (s *UserService) UpdateProfile(ctx context.Context, update models.UserProfileUpdate) error {
	if update.UserID <= 0 {
		return fmt.Errorf("invalid user id %d", update.UserID)
	}
	_, err := s.api.Request(ctx, http.MethodPatch, "/users/update", update)
	return err
}

func (s *UserService) Suspend(ctx context.Context, userID int) error {
	if userID <= 0 {
		return fmt.Errorf("invalid user id %d", userID)
	}
	_, err := s.api.Request(ctx, http.MethodPatch, fmt.Sprintf("/users/suspend/%d", userID), nil)
	return err
}
