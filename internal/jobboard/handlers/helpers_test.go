package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testRouter struct {
	accounts  *MockAccountController
	companies *MockCompanyController
	assets    *MockAssetStore
	ownerID   uuid.UUID
	router    *gin.Engine
}

func newTestRouter(t *testing.T) *testRouter {
	t.Helper()
	logger := zaptest.NewLogger(t)
	tr := &testRouter{
		accounts:  &MockAccountController{},
		companies: &MockCompanyController{},
		assets:    &MockAssetStore{},
		ownerID:   uuid.New(),
	}
	tr.router = NewRouter(RouterConfig{
		Accounts:   NewAccountHandler(tr.accounts, logger),
		Companies:  NewCompanyHandler(tr.companies, tr.assets, logger),
		Verifier:   &MockVerifier{identity: &models.Identity{AccountID: tr.ownerID, Email: "owner@acme.io"}},
		DB:         &MockPinger{},
		CORSOrigin: "http://localhost:5173",
		Logger:     logger,
	})
	return tr
}

func (tr *testRouter) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	tr.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func testLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}
