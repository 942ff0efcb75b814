package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"zaivio-client/apiclient"
	"zaivio-client/models"

	"github.com/shopspring/decimal"
)

func TestNodeCreateAndUpdate(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		var input models.NodeInput
		_ = json.NewDecoder(r.Body).Decode(&input)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   map[string]any{"node_id": 4, "status": input.Status, "total_nodes": input.TotalNodes, "daily_reward": input.DailyReward},
		})
	}))
	defer server.Close()

	gw, err := apiclient.New(apiclient.Config{BaseURL: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	defer gw.Close()
	svc := NewNodeService(gw)
	ctx := context.Background()

	input := models.NodeInput{Status: models.NodeActive, TotalNodes: 10, DailyReward: decimal.RequireFromString("2.75")}
	node, err := svc.Create(ctx, input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if node.NodeID != 4 || !node.DailyReward.Equal(input.DailyReward) {
		t.Errorf("unexpected node %+v", node)
	}

	if _, err := svc.Update(ctx, 4, input); err != nil {
		t.Fatalf("update: %v", err)
	}

	want := []string{"POST /admin/nodes/create", "PATCH /admin/nodes/update/4"}
	if len(paths) != len(want) || paths[0] != want[0] || paths[1] != want[1] {
		t.Errorf("requests = %v, want %v", paths, want)
	}
}

func TestNodeInputValidation(t *testing.T) {
	svc := NewNodeService(nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, models.NodeInput{Status: "broken"}); err == nil {
		t.Error("expected invalid status error")
	}
	if _, err := svc.Create(ctx, models.NodeInput{Status: models.NodeActive, TotalNodes: -1}); err == nil {
		t.Error("expected negative total error")
	}
	if _, err := svc.Update(ctx, 0, models.NodeInput{Status: models.NodeActive}); err == nil {
		t.Error("expected invalid id error")
	}
}
