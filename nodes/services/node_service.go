package services

import (
	"context"
	"fmt"
	"net/http"

	"zaivio-client/apiclient"
	"zaivio-client/models"
)

type NodeService struct {
	api apiclient.Doer
}

func NewNodeService(api apiclient.Doer) *NodeService {
	return &NodeService{api: api}
}

func (s *NodeService) All(ctx context.Context) ([]models.Node, error) {
	resp, err := s.api.Request(ctx, http.MethodGet, "/admin/nodes/all", nil)
	if err != nil {
		return nil, err
	}
	return apiclient.DecodeList[models.Node](resp)
}

func (s *NodeService) Create(ctx context.Context, input models.NodeInput) (*models.Node, error) {
	if err := validateNodeInput(input); err != nil {
		return nil, err
	}
	return s.write(ctx, http.MethodPost, "/admin/nodes/create", input)
}

func (s *NodeService) Update(ctx context.Context, nodeID int, input models.NodeInput) (*models.Node, error) {
	if nodeID <= 0 {
		return nil, fmt.Errorf("invalid node id %d", nodeID)
	}
	if err := validateNodeInput(input); err != nil {
		return nil, err
	}
	return s.write(ctx, http.MethodPatch, fmt.Sprintf("/admin/nodes/update/%d", nodeID), input)
}

func (s *NodeService) write(ctx context.Context, method, path string, input models.NodeInput) (*models.Node, error) {
	resp, err := s.api.Request(ctx, method, path, input)
	if err != nil {
		return nil, err
	}
	var node models.Node
	if err := resp.Decode(&node); err != nil {
		return nil, err
	}
	return &node, nil
}

func validateNodeInput(input models.NodeInput) error {
	if !input.Status.Valid() {
		return fmt.Errorf("invalid node status %q", input.Status)
	}
	if input.TotalNodes < 0 {
		return fmt.Errorf("total nodes cannot be negative")
	}
	if input.DailyReward.IsNegative() {
		return fmt.Errorf("daily reward cannot be negative")
	}
	return nil
}
