package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medibook-api/internal/config"
	"github.com/jwalitptl/medibook-api/internal/repository/memory"
)

type testResponse struct {
	Code    int             `json:"-"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Token   string          `json:"token"`
	Role    string          `json:"role"`
}

func (r testResponse) decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, v), "data: %s", r.Data)
}

// object decodes data into a generic map.
func (r testResponse) object(t *testing.T) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	r.decode(t, &m)
	return m
}

type testEnv struct {
	t   *testing.T
	app *App
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           5000,
			Mode:           "test",
			RequestTimeout: 5 * time.Second,
			MaxBodyBytes:   1 << 20,
			Timezone:       "UTC",
		},
		Storage:  config.StorageConfig{Driver: config.DriverMemory},
		JWT:      config.JWTConfig{Secret: "scenario-secret", TTL: time.Hour},
		Security: config.SecurityConfig{BcryptCost: 4},
		Uploads: config.UploadsConfig{
			Dir:     t.TempDir(),
			BaseURL: "http://localhost:5000",
			MaxSize: 1 << 20,
		},
		CORS:         config.CORSConfig{AllowedOrigins: []string{"*"}},
		Payment:      config.PaymentConfig{Currency: "INR"},
		Notification: config.NotificationConfig{Timeout: time.Second},
		Monitoring: config.MonitoringConfig{
			PrometheusEnabled: true,
			MetricsPath:       "/metrics",
			Namespace:         "medibook",
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	a, err := NewWithStore(context.Background(), testConfig(t), memory.NewStore())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return &testEnv{t: t, app: a}
}

func (e *testEnv) serve(req *http.Request, token string) testResponse {
	e.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.app.Handler().ServeHTTP(w, req)

	resp := testResponse{Code: w.Code}
	if w.Body.Len() > 0 {
		require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	}
	return resp
}

func (e *testEnv) makeRequest(method, path string, body interface{}, token string) testResponse {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	return e.serve(req, token)
}

// makeMultipart sends fields and an optional photo as multipart/form-data.
func (e *testEnv) makeMultipart(method, path string, fields map[string]string, photoName string, photo []byte, token string) testResponse {
	e.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(e.t, mw.WriteField(k, v))
	}
	if photoName != "" {
		fw, err := mw.CreateFormFile("photo", photoName)
		require.NoError(e.t, err)
		_, err = fw.Write(photo)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, mw.Close())

	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.serve(req, token)
}

type testAccount struct {
	ID    string
	Token string
}

func (e *testEnv) register(body map[string]interface{}) testAccount {
	e.t.Helper()
	resp := e.makeRequest(http.MethodPost, "/auth/register", body, "")
	require.Equal(e.t, http.StatusCreated, resp.Code, resp.Message)

	login := e.makeRequest(http.MethodPost, "/auth/login", map[string]interface{}{
		"email":    body["email"],
		"password": body["password"],
	}, "")
	require.Equal(e.t, http.StatusOK, login.Code, login.Message)
	require.NotEmpty(e.t, login.Token)

	return testAccount{ID: login.object(e.t)["_id"].(string), Token: login.Token}
}

func (e *testEnv) registerPatient(email string) testAccount {
	return e.register(map[string]interface{}{
		"name":     "Pat Patient",
		"email":    email,
		"password": "secret123",
		"gender":   "female",
	})
}

func (e *testEnv) registerDoctor(email string) testAccount {
	return e.register(map[string]interface{}{
		"name":           "Dr. Dee",
		"email":          email,
		"password":       "secret123",
		"role":           "doctor",
		"specialization": "Cardiology",
	})
}

func (e *testEnv) admin() testAccount {
	e.t.Helper()
	_, err := e.app.Admin.CreateAdmin(context.Background(), "root@example.com", "secret123", "Root")
	require.NoError(e.t, err)

	login := e.makeRequest(http.MethodPost, "/auth/login", map[string]interface{}{
		"email":    "root@example.com",
		"password": "secret123",
	}, "")
	require.Equal(e.t, http.StatusOK, login.Code, login.Message)
	require.Equal(e.t, "admin", login.Role)
	return testAccount{ID: login.object(e.t)["_id"].(string), Token: login.Token}
}

func futureDate() string {
	return time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")
}
