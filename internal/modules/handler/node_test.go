package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stocktake-io/stocktake/internal/modules/model"
	"github.com/stocktake-io/stocktake/internal/modules/serializer"
	"github.com/stocktake-io/stocktake/internal/modules/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockNodeService is a mock implementation of NodeService
type MockNodeService struct {
	mock.Mock
}

func (m *MockNodeService) AttachAsset(ctx context.Context, assetID uuid.UUID, parentID *uuid.UUID, actor service.Actor) (*model.Node, error) {
	args := m.Called(ctx, assetID, parentID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Node), args.Error(1)
}

func (m *MockNodeService) CreateLocation(ctx context.Context, name string, parentID *uuid.UUID) (*model.Node, error) {
	args := m.Called(ctx, name, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Node), args.Error(1)
}

func (m *MockNodeService) EnsureLocationPath(ctx context.Context, segments []string) (*model.Node, error) {
	args := m.Called(ctx, segments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Node), args.Error(1)
}

func (m *MockNodeService) Move(ctx context.Context, nodeID uuid.UUID, newParentID *uuid.UUID, actor service.Actor) (*model.Node, error) {
	args := m.Called(ctx, nodeID, newParentID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Node), args.Error(1)
}

func (m *MockNodeService) MarkOutOfTree(ctx context.Context, nodeID uuid.UUID, recursive bool, target model.AssetState, actor service.Actor) error {
	args := m.Called(ctx, nodeID, recursive, target, actor)
	return args.Error(0)
}

func (m *MockNodeService) Get(ctx context.Context, id uuid.UUID) (*model.Node, []model.Node, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Node), args.Get(1).([]model.Node), args.Error(2)
}

func (m *MockNodeService) Children(ctx context.Context, id uuid.UUID) ([]model.Node, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Node), args.Error(1)
}

func (m *MockNodeService) FindByAssetCode(ctx context.Context, code string) (*model.Node, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Node), args.Error(1)
}

func setupNodeRouter(svc service.NodeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewNodeHandler(svc)
	r.POST("/nodes/attach", h.AttachAsset)
	r.PUT("/nodes/:node_id/move", h.MoveNode)
	r.POST("/nodes/:node_id/mark-out-of-tree", h.MarkOutOfTree)
	r.GET("/nodes/:node_id", h.GetNode)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		raw, err := sonic.Marshal(body)
		assert.NoError(t, err)
		buf.Write(raw)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNodeHandler_AttachAsset_Statuses(t *testing.T) {
	assetID := uuid.New()

	tests := []struct {
		name       string
		svcErr     error
		wantStatus int
	}{
		{"created", nil, http.StatusCreated},
		{"already placed", service.ErrAlreadyPlaced, http.StatusConflict},
		{"not a container", service.ErrNotContainer, http.StatusConflict},
		{"asset missing", gorm.ErrRecordNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockNodeService)
			if tt.svcErr == nil {
				svc.On("AttachAsset", mock.Anything, assetID, (*uuid.UUID)(nil), mock.Anything).
					Return(&model.Node{ID: uuid.New(), NodeType: model.NodeTypeAsset}, nil)
			} else {
				svc.On("AttachAsset", mock.Anything, assetID, (*uuid.UUID)(nil), mock.Anything).
					Return(nil, tt.svcErr)
			}

			r := setupNodeRouter(svc)
			w := doJSON(t, r, http.MethodPost, "/nodes/attach",
				AttachAssetReq{AssetID: assetID.String(), User: "tester"})
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestNodeHandler_AttachAsset_BadPayload(t *testing.T) {
	svc := new(MockNodeService)
	r := setupNodeRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/nodes/attach", AttachAssetReq{AssetID: "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "AttachAsset")
}

func TestNodeHandler_Move_Statuses(t *testing.T) {
	nodeID := uuid.New()

	tests := []struct {
		name       string
		svcErr     error
		wantStatus int
	}{
		{"moved", nil, http.StatusOK},
		{"cycle", service.ErrCycleDetected, http.StatusConflict},
		{"not a container", service.ErrNotContainer, http.StatusConflict},
		{"missing", gorm.ErrRecordNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockNodeService)
			if tt.svcErr == nil {
				svc.On("Move", mock.Anything, nodeID, (*uuid.UUID)(nil), mock.Anything).
					Return(&model.Node{ID: nodeID}, nil)
			} else {
				svc.On("Move", mock.Anything, nodeID, (*uuid.UUID)(nil), mock.Anything).
					Return(nil, tt.svcErr)
			}

			r := setupNodeRouter(svc)
			w := doJSON(t, r, http.MethodPut, "/nodes/"+nodeID.String()+"/move", MoveNodeReq{})
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestNodeHandler_MarkOutOfTree(t *testing.T) {
	nodeID := uuid.New()

	t.Run("non-empty refused", func(t *testing.T) {
		svc := new(MockNodeService)
		svc.On("MarkOutOfTree", mock.Anything, nodeID, false, model.AssetStateLost, mock.Anything).
			Return(service.ErrNonEmptyNode)

		r := setupNodeRouter(svc)
		w := doJSON(t, r, http.MethodPost, "/nodes/"+nodeID.String()+"/mark-out-of-tree",
			MarkOutOfTreeReq{State: "L"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("recursive disposed", func(t *testing.T) {
		svc := new(MockNodeService)
		svc.On("MarkOutOfTree", mock.Anything, nodeID, true, model.AssetStateDisposed, mock.Anything).
			Return(nil)

		r := setupNodeRouter(svc)
		w := doJSON(t, r, http.MethodPost, "/nodes/"+nodeID.String()+"/mark-out-of-tree",
			MarkOutOfTreeReq{Recursive: true, State: "D"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("known is not a valid target", func(t *testing.T) {
		svc := new(MockNodeService)
		r := setupNodeRouter(svc)
		w := doJSON(t, r, http.MethodPost, "/nodes/"+nodeID.String()+"/mark-out-of-tree",
			MarkOutOfTreeReq{State: "K"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "MarkOutOfTree")
	})
}

func TestNodeHandler_GetNode(t *testing.T) {
	nodeID := uuid.New()
	name := "Shelf"

	svc := new(MockNodeService)
	svc.On("Get", mock.Anything, nodeID).Return(
		&model.Node{ID: nodeID, NodeType: model.NodeTypeLocation, Name: &name},
		[]model.Node{{NodeType: model.NodeTypeLocation}},
		nil,
	)

	r := setupNodeRouter(svc)
	w := doJSON(t, r, http.MethodGet, "/nodes/"+nodeID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp serializer.Response
	assert.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["depth"])
}
