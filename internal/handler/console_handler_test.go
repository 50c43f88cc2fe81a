package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"helix/internal/auth"
	"helix/internal/console"
	"helix/internal/domain"
	"helix/internal/handler"
	"helix/internal/port"
	"helix/internal/router"
	"helix/internal/routing"
	"helix/internal/session"
	"helix/internal/staging"
	"helix/internal/storage/memory"
	"helix/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testToken = "op-token"

type testServer struct {
	engine    *gin.Engine
	processor *mocks.MockProcessorClient
	store     *memory.Store
	sessions  *session.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	return newTestServerWithStorage(t, store, store)
}

func newTestServerWithStorage(t *testing.T, storage port.ObjectStorage, store *memory.Store) *testServer {
	t.Helper()
	tax := routing.Default()
	processor := new(mocks.MockProcessorClient)
	verifier := new(mocks.MockTokenVerifier)
	verifier.On("ValidateToken", testToken).Return(&auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "op-1"},
		Email:            "op@example.com",
	}, nil)
	verifier.On("ValidateToken", mock.Anything).Return(nil, domain.ErrUnauthorized)

	sessions := session.NewManager(func(operatorID string) *console.Controller {
		return console.New(operatorID, tax, processor, console.Options{
			RevalidateOnRoutingChange: true,
			RequireCredential:         true,
		})
	}, nil)
	consoleH := handler.NewConsoleHandler(sessions, staging.NewStager(storage, "bucket", "staging", nil), nil)

	engine := router.Setup(zap.NewNop(), []string{"*"}, verifier,
		consoleH, handler.NewRoutingHandler(tax), handler.NewHealthHandler(processor))
	return &testServer{engine: engine, processor: processor, store: store, sessions: sessions}
}

func (s *testServer) do(method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) doJSON(method, path string, v interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(v)
	return s.do(method, path, body, "application/json")
}

func (s *testServer) upload(t *testing.T, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, _ = fw.Write([]byte(content))
	}
	require.NoError(t, mw.Close())
	return s.do(http.MethodPost, "/api/v1/console/files", buf.Bytes(), mw.FormDataContentType())
}

func (s *testServer) route(t *testing.T, code string) {
	t.Helper()
	w := s.doJSON(http.MethodPut, "/api/v1/console/routing", handler.RoutingRequest{RoutingCode: code})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   *handler.APIError `json:"error"`
	Meta    *handler.ListMeta `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func waitIdle(t *testing.T, s *testServer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.sessions.Get("op-1").Wait(ctx))
}

func TestConsoleHandler_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/console", nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/console", nil)
	req.Header.Set("Authorization", "Bearer forged")
	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConsoleHandler_GetInitialView(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/console", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var view console.View
	env := decode(t, w, &view)
	assert.True(t, env.Success)
	assert.Equal(t, "op-1", view.Operator)
	assert.Len(t, view.Departments, 5)
	assert.Empty(t, view.Processes)
	assert.True(t, view.ProcessDisabled)
	assert.True(t, view.FileTypeDisabled)
	assert.Equal(t, "Routing not set", view.RoutingLabel)
	assert.False(t, view.CanUpload)
}

func TestConsoleHandler_SetRoutingByCode(t *testing.T) {
	s := newTestServer(t)

	w := s.doJSON(http.MethodPut, "/api/v1/console/routing", handler.RoutingRequest{RoutingCode: "FINANCE-PAYMENT-MT940"})
	require.Equal(t, http.StatusOK, w.Code)

	var view console.View
	decode(t, w, &view)
	assert.Equal(t, "FINANCE-PAYMENT-MT940", view.RoutingLabel)
	assert.Equal(t, ".mt940,.txt", view.Accept)
}

func TestConsoleHandler_SetRoutingByLevels(t *testing.T) {
	s := newTestServer(t)

	w := s.doJSON(http.MethodPut, "/api/v1/console/routing", handler.RoutingRequest{Department: "TREASURY", Process: "LIQUIDITY"})
	require.Equal(t, http.StatusOK, w.Code)
	var view console.View
	decode(t, w, &view)
	assert.Equal(t, "LIQUIDITY", view.Selection.Process)
	assert.False(t, view.FileTypeDisabled)

	w = s.doJSON(http.MethodPut, "/api/v1/console/routing", handler.RoutingRequest{FileType: "CAMT.053"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &view)
	assert.Equal(t, "TREASURY-LIQUIDITY-CAMT.053", view.RoutingLabel)
}

func TestConsoleHandler_SetRoutingErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		req  handler.RoutingRequest
		code string
	}{
		{"malformed code", handler.RoutingRequest{RoutingCode: "FINANCE"}, "INVALID_ROUTING_CODE"},
		{"unknown department", handler.RoutingRequest{Department: "MARKETING"}, "INVALID_DEPARTMENT"},
		{"process outside department", handler.RoutingRequest{Department: "FINANCE", Process: "KYC"}, "INVALID_PROCESS"},
		{"file type outside process", handler.RoutingRequest{RoutingCode: "FINANCE-PAYMENT-XML"}, "INVALID_FILE_TYPE"},
		{"empty request", handler.RoutingRequest{}, "ROUTING_INCOMPLETE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.doJSON(http.MethodPut, "/api/v1/console/routing", tt.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			env := decode(t, w, nil)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestConsoleHandler_AddFilesValidates(t *testing.T) {
	s := newTestServer(t)
	s.route(t, "FINANCE-PAYMENT-MT940")

	w := s.upload(t, map[string]string{"statement.mt940": ":20:REF1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var added []console.FileView
	decode(t, w, &added)
	require.Len(t, added, 1)
	assert.True(t, added[0].Valid)
	assert.Equal(t, domain.FileStatusReady, added[0].Status)

	w = s.upload(t, map[string]string{"report.pdf": "%PDF"})
	require.Equal(t, http.StatusCreated, w.Code)
	decode(t, w, &added)
	require.Len(t, added, 1)
	assert.False(t, added[0].Valid)
	assert.Contains(t, added[0].Errors, "invalid file type, expected: .mt940, .txt")

	assert.Equal(t, 2, s.store.Len())

	var view console.View
	decode(t, s.do(http.MethodGet, "/api/v1/console", nil, ""), &view)
	assert.Equal(t, 1, view.ValidCount)
	assert.Equal(t, 1, view.InvalidCount)
	assert.True(t, view.CanUpload)
}

// flakyStore refuses to stage one file name.
type flakyStore struct {
	*memory.Store
	reject string
}

func (s *flakyStore) Put(ctx context.Context, obj port.StagedObject) (string, error) {
	if strings.HasSuffix(obj.Key, "/"+s.reject) {
		return "", errors.New("bucket unavailable")
	}
	return s.Store.Put(ctx, obj)
}

func TestConsoleHandler_AddFilesRollsBackOnFailure(t *testing.T) {
	store := memory.NewStore()
	s := newTestServerWithStorage(t, &flakyStore{Store: store, reject: "c.mt940"}, store)
	s.route(t, "FINANCE-PAYMENT-MT940")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range []string{"a.mt940", "b.mt940", "c.mt940"} {
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, _ = fw.Write([]byte(":20:" + name))
	}
	require.NoError(t, mw.Close())

	w := s.do(http.MethodPost, "/api/v1/console/files", buf.Bytes(), mw.FormDataContentType())
	assert.Equal(t, http.StatusInternalServerError, w.Code, w.Body.String())

	var view console.View
	decode(t, s.do(http.MethodGet, "/api/v1/console", nil, ""), &view)
	assert.Empty(t, view.Files)
	assert.Zero(t, store.Len())
}

func TestConsoleHandler_AddFilesWithoutFile(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/console/files", []byte(`{}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w, nil)
	assert.Equal(t, "MISSING_FILE", env.Error.Code)
}

func TestConsoleHandler_RemoveAndClear(t *testing.T) {
	s := newTestServer(t)
	s.route(t, "FINANCE-RECONCILIATION-CSV")

	var added []console.FileView
	decode(t, s.upload(t, map[string]string{"a.csv": "a,b"}), &added)
	decode(t, s.upload(t, map[string]string{"b.csv": "c,d"}), nil)
	require.Equal(t, 2, s.store.Len())

	w := s.do(http.MethodDelete, "/api/v1/console/files/"+added[0].ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var view console.View
	decode(t, w, &view)
	require.Len(t, view.Files, 1)
	assert.Equal(t, "b.csv", view.Files[0].Name)
	assert.Equal(t, 1, s.store.Len())

	w = s.do(http.MethodDelete, "/api/v1/console/files/unknown", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/console/files", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &view)
	assert.Empty(t, view.Files)
	assert.False(t, view.CanClear)
	assert.Equal(t, 0, s.store.Len())
}

func TestConsoleHandler_ValidateAfterRoutingChange(t *testing.T) {
	s := newTestServer(t)
	s.route(t, "FINANCE-REPORTING-CSV")
	decode(t, s.upload(t, map[string]string{"ledger.xml": "<a/>"}), nil)

	w := s.do(http.MethodPost, "/api/v1/console/validate", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var counts struct {
		Valid   int `json:"valid"`
		Invalid int `json:"invalid"`
	}
	decode(t, w, &counts)
	assert.Equal(t, 0, counts.Valid)
	assert.Equal(t, 1, counts.Invalid)

	s.route(t, "FINANCE-REPORTING-XML")
	decode(t, s.do(http.MethodPost, "/api/v1/console/validate", nil, ""), &counts)
	assert.Equal(t, 1, counts.Valid)
	assert.Equal(t, 0, counts.Invalid)
}

func TestConsoleHandler_SubmitPreconditions(t *testing.T) {
	s := newTestServer(t)

	w := s.doJSON(http.MethodPost, "/api/v1/console/submit", handler.SubmitRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ROUTING_INCOMPLETE", decode(t, w, nil).Error.Code)

	s.route(t, "FINANCE-PAYMENT-MT940")
	w = s.doJSON(http.MethodPost, "/api/v1/console/submit", handler.SubmitRequest{Priority: "asap"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PRIORITY", decode(t, w, nil).Error.Code)

	w = s.doJSON(http.MethodPost, "/api/v1/console/submit", handler.SubmitRequest{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "NO_VALID_FILES", decode(t, w, nil).Error.Code)

	s.processor.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestConsoleHandler_SubmitRunsBatch(t *testing.T) {
	s := newTestServer(t)
	s.route(t, "FINANCE-PAYMENT-MT940")
	decode(t, s.upload(t, map[string]string{"one.mt940": ":20:ONE"}), nil)
	decode(t, s.upload(t, map[string]string{"two.txt": ":20:TWO"}), nil)

	s.processor.On("Upload", mock.Anything, mock.MatchedBy(func(in port.ProcessorUploadInput) bool {
		return in.FileName == "one.mt940"
	})).Return(&port.ProcessorUploadOutput{JobID: "job-1", Status: "queued"}, nil)
	s.processor.On("Upload", mock.Anything, mock.MatchedBy(func(in port.ProcessorUploadInput) bool {
		return in.FileName == "two.txt"
	})).Return(nil, errors.New("processor unavailable"))

	w := s.doJSON(http.MethodPost, "/api/v1/console/submit", handler.SubmitRequest{Priority: "high", Notes: "eom"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var started domain.BatchResult
	decode(t, w, &started)
	assert.NotEmpty(t, started.ID)
	assert.Equal(t, "/api/v1/console/batches/"+started.ID, w.Header().Get("Location"))

	waitIdle(t, s)

	w = s.do(http.MethodGet, "/api/v1/console/batches/"+started.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var batch domain.BatchResult
	decode(t, w, &batch)
	assert.Equal(t, domain.BatchStateFinished, batch.State)
	assert.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)
	assert.Equal(t, domain.PriorityHigh, batch.Priority)
	assert.Equal(t, "op@example.com", batch.Email)

	w = s.do(http.MethodGet, "/api/v1/console/batches", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var batches []domain.BatchResult
	env := decode(t, w, &batches)
	require.Len(t, batches, 1)
	assert.Equal(t, 1, env.Meta.Total)

	var view console.View
	decode(t, s.do(http.MethodGet, "/api/v1/console", nil, ""), &view)
	assert.Empty(t, view.Files)
	assert.Equal(t, 0, s.store.Len())

	s.processor.AssertNumberOfCalls(t, "Upload", 2)
	for _, call := range s.processor.Calls {
		in := call.Arguments.Get(1).(port.ProcessorUploadInput)
		assert.Equal(t, testToken, in.Token)
	}
}

func TestConsoleHandler_CancelWithoutBatch(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/console/cancel", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp handler.CancelResponse
	decode(t, w, &resp)
	assert.False(t, resp.Cancelled)
}

func TestConsoleHandler_BatchNotFound(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/console/batches/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodGet, "/api/v1/console/batches/nope/export", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConsoleHandler_ExportBatch(t *testing.T) {
	s := newTestServer(t)
	s.route(t, "TREASURY-INVESTMENT-CSV")
	decode(t, s.upload(t, map[string]string{"positions.csv": "isin,qty"}), nil)
	s.processor.On("Upload", mock.Anything, mock.Anything).
		Return(&port.ProcessorUploadOutput{JobID: "job-9"}, nil)

	var started domain.BatchResult
	decode(t, s.doJSON(http.MethodPost, "/api/v1/console/submit", handler.SubmitRequest{}), &started)
	waitIdle(t, s)

	w := s.do(http.MethodGet, "/api/v1/console/batches/"+started.ID+"/export", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "batch_TREASURY-INVESTMENT-CSV_")
	assert.Contains(t, w.Body.String(), "positions.csv")
	assert.Contains(t, w.Body.String(), "job-9")

	w = s.do(http.MethodGet, "/api/v1/console/batches/"+started.ID+"/export?format=xlsx", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasSuffix(w.Header().Get("Content-Disposition"), `.xlsx"`))
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Batch")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "positions.csv", rows[1][3])

	w = s.do(http.MethodGet, "/api/v1/console/batches/"+started.ID+"/export?format=pdf", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConsoleHandler_RoutingCatalogue(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/routing", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var cat struct {
		Departments []struct {
			Code      string `json:"code"`
			Processes []struct {
				Code      string   `json:"code"`
				FileTypes []string `json:"file_types"`
			} `json:"processes"`
		} `json:"departments"`
	}
	decode(t, w, &cat)
	require.Len(t, cat.Departments, 5)
	assert.Equal(t, "FINANCE", cat.Departments[0].Code)
	assert.Equal(t, "PAYMENT", cat.Departments[0].Processes[0].Code)
	assert.Equal(t, []string{"MT940", "CAMT.053", "BAI2"}, cat.Departments[0].Processes[0].FileTypes)
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	s.processor.On("Ping", mock.Anything).Return(errors.New("down")).Once()
	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	s.processor.On("Ping", mock.Anything).Return(nil)
	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "helix_http_requests_total")
}
