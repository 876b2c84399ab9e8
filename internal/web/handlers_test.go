package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/audithawk/internal/audit"
	"github.com/Veraticus/audithawk/internal/model"
	"github.com/Veraticus/audithawk/internal/testutil"
)

var fixedTime = time.Date(2026, 10, 14, 15, 4, 5, 0, time.UTC)

type sessionResponse struct {
	Session model.AuditSession `json:"session"`
	Error   string             `json:"error"`
	Message string             `json:"message"`
	Summary model.Summary      `json:"summary"`
	Success bool               `json:"success"`
}

func newTestServer(t *testing.T, vendors ...string) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	seq := 0
	state, err := audit.NewState(context.Background(), db.Storage, audit.Options{
		Now:            func() time.Time { return fixedTime },
		NewID:          func() string { seq++; return fmt.Sprintf("session-%d", seq) },
		Rand:           rand.New(rand.NewSource(1)),
		TrustedVendors: vendors,
	})
	require.NoError(t, err)

	return NewServer(state, Options{Now: func() time.Time { return fixedTime }})
}

func uploadRequest(t *testing.T, fields map[string]string, fileName, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if fileName != "" {
		part, err := writer.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) sessionResponse {
	t.Helper()
	var resp sessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func analyze(t *testing.T, s *Server, content string) sessionResponse {
	t.Helper()
	w := serve(s, uploadRequest(t, map[string]string{"threshold": "75"}, "upload.csv", content))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeSession(t, w)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, ServiceName, resp["service"])
	assert.Equal(t, "2026-10-14T15:04:05Z", resp["timestamp"])
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		fields     map[string]string
		name       string
		fileName   string
		content    string
		wantError  string
		wantStatus int
	}{
		{
			name:       "threshold example",
			fields:     map[string]string{"threshold": "75"},
			fileName:   "upload.csv",
			content:    testutil.CSVThresholdExample,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing file",
			fields:     map[string]string{"threshold": "75"},
			wantStatus: http.StatusBadRequest,
			wantError:  "no file provided",
		},
		{
			name:       "invalid threshold",
			fields:     map[string]string{"threshold": "-5"},
			fileName:   "upload.csv",
			content:    testutil.CSVThresholdExample,
			wantStatus: http.StatusBadRequest,
			wantError:  "threshold must be a positive number",
		},
		{
			name:       "missing amount column",
			fields:     map[string]string{"threshold": "75"},
			fileName:   "upload.csv",
			content:    testutil.CSVMissingAmount,
			wantStatus: http.StatusBadRequest,
			wantError:  "missing required column",
		},
		{
			name:       "header only",
			fields:     map[string]string{"threshold": "75"},
			fileName:   "upload.csv",
			content:    testutil.CSVHeaderOnly,
			wantStatus: http.StatusBadRequest,
			wantError:  "no data rows",
		},
		{
			name:       "unsupported format",
			fields:     map[string]string{"threshold": "75"},
			fileName:   "upload.xlsx",
			content:    "binary",
			wantStatus: http.StatusBadRequest,
			wantError:  "unsupported file format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)

			w := serve(s, uploadRequest(t, tt.fields, tt.fileName, tt.content))
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			resp := decodeSession(t, w)
			if tt.wantError != "" {
				assert.False(t, resp.Success)
				assert.Contains(t, resp.Error, tt.wantError)
				return
			}
			assert.True(t, resp.Success)
			assert.Equal(t, "Analysis complete", resp.Message)
			require.Len(t, resp.Session.Transactions, 2)
			require.Len(t, resp.Session.Flagged, 1)
			assert.Equal(t, "T1", resp.Session.Flagged[0].TransactionID)
			assert.Equal(t, 50, resp.Session.RiskScore)
			assert.Equal(t, 1, resp.Summary.FraudCount)
			assert.Equal(t, 100, resp.Summary.AvgFlagValue)
		})
	}
}

func TestAnalyzeFailureKeepsLiveSession(t *testing.T) {
	s := newTestServer(t)
	first := analyze(t, s, testutil.CSVThresholdExample)

	w := serve(s, uploadRequest(t, map[string]string{"threshold": "75"}, "bad.csv", testutil.CSVMissingAmount))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/api/live", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first.Session.ID, decodeSession(t, w).Session.ID)
}

func TestAnalyzeSynthetic(t *testing.T) {
	s := newTestServer(t)

	w := serve(s, uploadRequest(t, map[string]string{"threshold": "75", "mode": "synthetic"}, "", ""))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decodeSession(t, w)
	assert.Equal(t, model.ModeSynthetic, resp.Session.Mode)
	assert.Equal(t, audit.SyntheticFileName, resp.Session.FileName)
	assert.NotEmpty(t, resp.Session.Transactions)
}

func TestAnalyzeTrustedVendor(t *testing.T) {
	s := newTestServer(t, "Acme")

	resp := analyze(t, s, testutil.CSVTrustedVendor)
	require.Len(t, resp.Session.Transactions, 1)
	assert.False(t, resp.Session.Transactions[0].Flagged)
	assert.Equal(t, model.ReasonTrustedVendor, resp.Session.Transactions[0].Reason)
	assert.Equal(t, 0, resp.Session.RiskScore)
}

func TestLive(t *testing.T) {
	s := newTestServer(t)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/api/live", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	analyze(t, s, testutil.CSVThresholdExample)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/api/live", nil))
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeSession(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "session-1", resp.Session.ID)

	w = serve(s, httptest.NewRequest(http.MethodDelete, "/api/live", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/api/live", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDisposition(t *testing.T) {
	s := newTestServer(t)
	analyze(t, s, testutil.CSVThresholdExample)

	tests := []struct {
		name       string
		path       string
		wantStatus model.Status
		wantCode   int
		wantFraud  int
	}{
		{
			name:       "accept flagged",
			path:       "/api/live/transactions/1/accept",
			wantCode:   http.StatusOK,
			wantStatus: model.StatusAccepted,
			wantFraud:  1,
		},
		{
			name:       "reject flagged",
			path:       "/api/live/transactions/1/reject",
			wantCode:   http.StatusOK,
			wantStatus: model.StatusRejected,
			wantFraud:  0,
		},
		{
			name:     "unknown index",
			path:     "/api/live/transactions/99/accept",
			wantCode: http.StatusNotFound,
		},
		{
			name:     "non-numeric index",
			path:     "/api/live/transactions/abc/reject",
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(s, httptest.NewRequest(http.MethodPost, tt.path, nil))
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}

			resp := decodeSession(t, w)
			assert.Equal(t, tt.wantStatus, resp.Session.Transactions[0].Status)
			assert.Equal(t, tt.wantStatus, resp.Session.Flagged[0].Status)
			assert.Equal(t, tt.wantFraud, resp.Summary.FraudCount)
		})
	}
}

func TestDispositionWithoutLiveSession(t *testing.T) {
	s := newTestServer(t)

	w := serve(s, httptest.NewRequest(http.MethodPost, "/api/live/transactions/1/accept", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decodeSession(t, w).Error, "no live session")
}

func TestSessions(t *testing.T) {
	s := newTestServer(t)
	analyze(t, s, testutil.CSVThresholdExample)
	analyze(t, s, testutil.CSVFull)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Sessions []model.AuditSession `json:"sessions"`
		Count    int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "session-2", list.Sessions[0].ID)
	assert.Equal(t, "session-1", list.Sessions[1].ID)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/api/sessions/session-1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeSession(t, w).Session.Transactions, 2)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/api/sessions/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSelectSession(t *testing.T) {
	s := newTestServer(t)
	analyze(t, s, testutil.CSVThresholdExample)
	analyze(t, s, testutil.CSVFull)

	w := serve(s, httptest.NewRequest(http.MethodPost, "/api/sessions/session-1/select", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "session-1", decodeSession(t, w).Session.ID)

	w = serve(s, httptest.NewRequest(http.MethodPost, "/api/live/transactions/1/reject", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/api/sessions/session-1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.StatusPending, decodeSession(t, w).Session.Transactions[0].Status)

	w = serve(s, httptest.NewRequest(http.MethodPost, "/api/sessions/missing/select", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVendors(t *testing.T) {
	s := newTestServer(t)

	addVendor := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/vendors", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return serve(s, req)
	}

	w := addVendor(`{"name":"Acme"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = addVendor(`{"name":"acme"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = addVendor(`{"name":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = addVendor(`not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/api/vendors", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Vendors []string `json:"vendors"`
		Count   int      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, []string{"Acme"}, list.Vendors)
	assert.Equal(t, 1, list.Count)

	resp := analyze(t, s, testutil.CSVTrustedVendor)
	assert.Empty(t, resp.Session.Flagged)

	w = serve(s, httptest.NewRequest(http.MethodDelete, "/api/vendors/ACME", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(s, httptest.NewRequest(http.MethodDelete, "/api/vendors/Acme", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	resp = analyze(t, s, testutil.CSVTrustedVendor)
	assert.Len(t, resp.Session.Flagged, 1)
}

func TestAnalyzeRejectsOversizedUpload(t *testing.T) {
	s := newTestServer(t)

	content := "transaction_id,amount\n" + strings.Repeat("T1,100\n", (maxUploadSize/7)+1)
	w := serve(s, uploadRequest(t, map[string]string{"threshold": "75"}, "huge.csv", content))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
