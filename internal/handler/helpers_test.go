package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/auth"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/clock"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/memstore"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/notify"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/service"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/storage"
	"github.com/stretchr/testify/require"
)

const baseURL = "http://localhost:6543"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// captureMailer remembers the last code sent to each address.
type captureMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *captureMailer) SendResetCode(_ context.Context, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[to] = code
	return nil
}

func (m *captureMailer) code(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[to]
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	tokens  *auth.TokenManager
	mailer  *captureMailer
	images  *storage.LocalStorage
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memstore.New()
	clk := clock.Fake(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	tokens := auth.NewTokenManager("handler-secret", time.Hour, clk)
	mailer := &captureMailer{codes: map[string]string{}}

	images, err := storage.NewLocalStorage(t.TempDir(), baseURL)
	require.NoError(t, err)

	authSvc := service.NewAuthService(store.Users(), tokens, mailer, clk, service.AuthOptions{
		AllowedEmailDomains: []string{"gmail.com", "student.itera.ac.id"},
		ResetCodeTTL:        15 * time.Minute,
	}, discardLogger())
	events := service.NewEventService(store.Events(), images, discardLogger())
	bookings := service.NewBookingService(store.Bookings(), notify.NopPublisher{}, discardLogger())

	h := New(authSvc, events, bookings, tokens, Options{MaxUploadBytes: 1 << 20}, discardLogger())
	return &testServer{
		t:       t,
		handler: NewRouter(h, images.Dir(), discardLogger()),
		tokens:  tokens,
		mailer:  mailer,
		images:  images,
	}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) json(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(req)
}

// upload is an optional file part of a multipart request.
type upload struct {
	field, filename string
	content         []byte
}

func (s *testServer) multipart(method, path, token string, fields map[string]string, file *upload) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(s.t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile(file.field, file.filename)
		require.NoError(s.t, err)
		_, err = fw.Write(file.content)
		require.NoError(s.t, err)
	}
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(req)
}

// signup registers a user over HTTP and logs them in.
func (s *testServer) signup(name, email string, role model.Role) model.LoginResponse {
	s.t.Helper()
	rec := s.json(http.MethodPost, "/api/register", "", model.RegisterRequest{
		Name: name, Email: email, Password: "password123", Role: string(role),
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.json(http.MethodPost, "/api/login", "", model.LoginRequest{Email: email, Password: "password123"})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[model.LoginResponse](s.t, rec)
}

func (s *testServer) newEvent(token string, capacity, price string) string {
	s.t.Helper()
	rec := s.multipart(http.MethodPost, "/api/events", token, map[string]string{
		"title":        "Campus Concert",
		"date":         "2026-06-01T19:30",
		"location":     "Main Quad",
		"capacity":     capacity,
		"ticket_price": price,
	}, nil)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.EventWriteResponse](s.t, rec).ID
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(strings.NewReader(rec.Body.String())).Decode(&v), rec.Body.String())
	return v
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[model.MessageResponse](t, rec).Message
}
