package services

import (
	"context"
	"net/http"

	"zaivio-client/apiclient"
	"zaivio-client/models"
)

type ActivityService struct {
	api apiclient.Doer
}

func NewActivityService(api apiclient.Doer) *ActivityService {
	return &ActivityService{api: api}
}

func (s *ActivityService) Activities(ctx context.Context) ([]models.Activity, error) {
	return s.list(ctx, "/activity/all")
}

func (s *ActivityService) Rewards(ctx context.Context) ([]models.Activity, error) {
	return s.list(ctx, "/activity/all_reward")
}

func (s *ActivityService) list(ctx context.Context, path string) ([]models.Activity, error) {
	resp, err := s.api.Request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return apiclient.DecodeList[models.Activity](resp)
}
