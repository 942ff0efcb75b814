package services

import (
	"context"
	"net/http"

	"zaivio-client/apiclient"
	"zaivio-client/models"
)

type PointsService struct {
	api apiclient.Doer
}

func NewPointsService(api apiclient.Doer) *PointsService {
	return &PointsService{api: api}
}

func (s *PointsService) GetPoints(ctx context.Context) (*models.Points, error) {
	resp, err := s.api.Request(ctx, http.MethodGet, "/points/get", nil)
	if err != nil {
		return nil, err
	}
	var points models.Points
	if err := resp.Decode(&points); err != nil {
		return nil, err
	}
	return &points, nil
}

// Redeem converts all redeemable points into tokens.
func (s *PointsService) Redeem(ctx context.Context) (*models.RedeemResult, error) {
	resp, err := s.api.Request(ctx, http.MethodGet, "/points/redeeme", nil)
	if err != nil {
		return nil, err
	}
	var result models.RedeemResult
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}
