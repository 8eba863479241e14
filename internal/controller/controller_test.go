package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"pdf-chat-be/internal/dto"
	"pdf-chat-be/internal/entity"
	"pdf-chat-be/internal/pkg/serverutils"
	"pdf-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "controller-test-secret"

type stubAuthService struct {
	registerErr error
	loginErr    error
}

func (s *stubAuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &dto.AuthResponse{User: dto.UserDTO{Id: uuid.New(), Email: req.Email, Name: req.Name}, Token: "token"}, nil
}

func (s *stubAuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &dto.AuthResponse{User: dto.UserDTO{Email: req.Email}, Token: "token"}, nil
}

func (s *stubAuthService) Profile(ctx context.Context, userId uuid.UUID) (*dto.UserDTO, error) {
	return &dto.UserDTO{Id: userId, Email: "ada@example.com"}, nil
}

func (s *stubAuthService) IssueToken(user *entity.User) (string, error) {
	return "token", nil
}

type stubOAuthService struct {
	idTokenErr error
}

func (s *stubOAuthService) GetLoginURL(provider string) (*dto.GoogleLoginURLResponse, error) {
	return &dto.GoogleLoginURLResponse{URL: "https://accounts.google.com/o/oauth2/auth?state=abc", State: "abc"}, nil
}

func (s *stubOAuthService) HandleCallback(ctx context.Context, provider, state, code string) (*dto.AuthResponse, error) {
	if state != "abc" {
		return nil, service.ErrInvalidOAuthState
	}
	return &dto.AuthResponse{Token: "token"}, nil
}

func (s *stubOAuthService) LoginWithIDToken(ctx context.Context, idToken string) (*dto.AuthResponse, error) {
	if s.idTokenErr != nil {
		return nil, s.idTokenErr
	}
	created := true
	return &dto.AuthResponse{Token: "token", IsNewUser: &created}, nil
}

func (s *stubOAuthService) UpsertGoogleUser(ctx context.Context, profile service.GoogleProfile) (*entity.User, bool, error) {
	return nil, false, nil
}

type stubDocumentService struct {
	uploaded     *dto.UploadDocumentRequest
	listEmail    string
	err          error
	reprocessErr error
}

func (s *stubDocumentService) Upload(ctx context.Context, req *dto.UploadDocumentRequest) (*dto.DocumentResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.uploaded = req
	return &dto.DocumentResponse{Id: uuid.New(), OriginalName: req.FileName, Size: req.Size, Status: "processing"}, nil
}

func (s *stubDocumentService) List(ctx context.Context, userId uuid.UUID, email string) ([]*dto.DocumentResponse, error) {
	s.listEmail = email
	return []*dto.DocumentResponse{}, nil
}

func (s *stubDocumentService) Get(ctx context.Context, userId, documentId uuid.UUID) (*dto.DocumentResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.DocumentResponse{Id: documentId}, nil
}

func (s *stubDocumentService) Delete(ctx context.Context, userId, documentId uuid.UUID) error {
	return s.err
}

func (s *stubDocumentService) Reprocess(ctx context.Context, userId, documentId uuid.UUID) error {
	return s.reprocessErr
}

func (s *stubDocumentService) ReprocessAll(ctx context.Context, userId uuid.UUID) (*dto.ReprocessAllResponse, error) {
	return &dto.ReprocessAllResponse{Queued: 2, Total: 2}, nil
}

type stubChatService struct {
	connected bool
	sendErr   error
}

func (s *stubChatService) SendMessage(ctx context.Context, userId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	return &dto.SendMessageResponse{Message: "answer", Timestamp: time.Now(), ConversationId: uuid.New()}, nil
}

func (s *stubChatService) GetHistory(ctx context.Context, userId, documentId uuid.UUID) (*dto.ChatHistoryResponse, error) {
	return &dto.ChatHistoryResponse{Messages: []dto.MessageResponse{}}, nil
}

func (s *stubChatService) TestConnection(ctx context.Context) bool {
	return s.connected
}

type routes interface {
	RegisterRoutes(r fiber.Router)
}

func newTestApp(t *testing.T, controllers ...routes) *fiber.App {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)
	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandler})
	api := app.Group("/api")
	for _, c := range controllers {
		c.RegisterRoutes(api)
	}
	return app
}

func bearer(t *testing.T, userId uuid.UUID) string {
	t.Helper()
	token, err := serverutils.IssueToken(userId, "ada@example.com", testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, serverutils.BaseResponse[json.RawMessage]) {
	t.Helper()
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()

	var body serverutils.BaseResponse[json.RawMessage]
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body))
	}
	return res.StatusCode, body
}

func TestAuthController(t *testing.T) {
	tests := []struct {
		name     string
		auth     *stubAuthService
		oauth    *stubOAuthService
		req      func(t *testing.T) *http.Request
		wantCode int
	}{
		{
			name: "register created",
			auth: &stubAuthService{},
			req: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPost, "/api/auth/register", dto.RegisterRequest{Email: "ada@example.com", Name: "Ada", Password: "secret1"})
			},
			wantCode: fiber.StatusCreated,
		},
		{
			name: "register short password",
			auth: &stubAuthService{},
			req: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPost, "/api/auth/register", dto.RegisterRequest{Email: "ada@example.com", Name: "Ada", Password: "123"})
			},
			wantCode: fiber.StatusBadRequest,
		},
		{
			name: "register duplicate email",
			auth: &stubAuthService{registerErr: service.ErrEmailTaken},
			req: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPost, "/api/auth/register", dto.RegisterRequest{Email: "ada@example.com", Name: "Ada", Password: "secret1"})
			},
			wantCode: fiber.StatusConflict,
		},
		{
			name: "login bad credentials",
			auth: &stubAuthService{loginErr: service.ErrInvalidCredentials},
			req: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPost, "/api/auth/login", dto.LoginRequest{Email: "ada@example.com", Password: "wrong"})
			},
			wantCode: fiber.StatusUnauthorized,
		},
		{
			name:  "google unverified email",
			auth:  &stubAuthService{},
			oauth: &stubOAuthService{idTokenErr: service.ErrGoogleEmailUnverified},
			req: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPost, "/api/auth/google", dto.GoogleLoginRequest{IdToken: "id-token"})
			},
			wantCode: fiber.StatusBadRequest,
		},
		{
			name: "google login",
			auth: &stubAuthService{},
			req: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPost, "/api/auth/google", dto.GoogleLoginRequest{IdToken: "id-token"})
			},
			wantCode: fiber.StatusOK,
		},
		{
			name: "google callback with unknown state",
			auth: &stubAuthService{},
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=c&state=zzz", nil)
			},
			wantCode: fiber.StatusBadRequest,
		},
		{
			name: "profile requires token",
			auth: &stubAuthService{},
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
			},
			wantCode: fiber.StatusUnauthorized,
		},
		{
			name: "profile",
			auth: &stubAuthService{},
			req: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
				req.Header.Set("Authorization", bearer(t, uuid.New()))
				return req
			},
			wantCode: fiber.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oauth := tt.oauth
			if oauth == nil {
				oauth = &stubOAuthService{}
			}
			app := newTestApp(t, NewAuthController(tt.auth, oauth))

			code, body := do(t, app, tt.req(t))

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}
}

func TestAuthControllerGoogleRedirect(t *testing.T) {
	app := newTestApp(t, NewAuthController(&stubAuthService{}, &stubOAuthService{}))

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/auth/google/login", nil), -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusTemporaryRedirect, res.StatusCode)
	assert.Contains(t, res.Header.Get("Location"), "accounts.google.com")
}

func multipartUpload(t *testing.T, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/pdfs/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestDocumentControllerUpload(t *testing.T) {
	userId := uuid.New()
	svc := &stubDocumentService{}
	app := newTestApp(t, NewDocumentController(svc))

	req := multipartUpload(t, "pdf", "manual.pdf", "application/pdf", []byte("%PDF-1.4 body"))
	req.Header.Set("Authorization", bearer(t, userId))
	code, body := do(t, app, req)

	assert.Equal(t, fiber.StatusCreated, code)
	assert.True(t, body.Success)
	require.NotNil(t, svc.uploaded)
	assert.Equal(t, userId, svc.uploaded.OwnerId)
	assert.Equal(t, "ada@example.com", svc.uploaded.OwnerEmail)
	assert.Equal(t, "manual.pdf", svc.uploaded.FileName)
	assert.Equal(t, "application/pdf", svc.uploaded.ContentType)
	assert.Equal(t, []byte("%PDF-1.4 body"), svc.uploaded.Data)
}

func TestDocumentControllerUploadErrors(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		err      error
		wantCode int
	}{
		{name: "missing pdf field", field: "file", wantCode: fiber.StatusBadRequest},
		{name: "not a pdf", field: "pdf", err: service.ErrNotPDF, wantCode: fiber.StatusBadRequest},
		{name: "too large", field: "pdf", err: service.ErrFileTooLarge, wantCode: fiber.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, NewDocumentController(&stubDocumentService{err: tt.err}))
			req := multipartUpload(t, tt.field, "notes.txt", "text/plain", []byte("hello"))
			req.Header.Set("Authorization", bearer(t, uuid.New()))

			code, body := do(t, app, req)

			assert.Equal(t, tt.wantCode, code)
			assert.False(t, body.Success)
		})
	}
}

func TestDocumentControllerRoutes(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name     string
		svc      *stubDocumentService
		method   string
		target   string
		wantCode int
	}{
		{name: "list", svc: &stubDocumentService{}, method: http.MethodGet, target: "/api/pdfs", wantCode: fiber.StatusOK},
		{name: "get", svc: &stubDocumentService{}, method: http.MethodGet, target: "/api/pdfs/" + id.String(), wantCode: fiber.StatusOK},
		{name: "get invalid id", svc: &stubDocumentService{}, method: http.MethodGet, target: "/api/pdfs/not-an-id", wantCode: fiber.StatusBadRequest},
		{name: "get missing", svc: &stubDocumentService{err: service.ErrDocumentNotFound}, method: http.MethodGet, target: "/api/pdfs/" + id.String(), wantCode: fiber.StatusNotFound},
		{name: "get foreign", svc: &stubDocumentService{err: service.ErrForbidden}, method: http.MethodGet, target: "/api/pdfs/" + id.String(), wantCode: fiber.StatusForbidden},
		{name: "delete", svc: &stubDocumentService{}, method: http.MethodDelete, target: "/api/pdfs/" + id.String(), wantCode: fiber.StatusOK},
		{name: "delete foreign", svc: &stubDocumentService{err: service.ErrForbidden}, method: http.MethodDelete, target: "/api/pdfs/" + id.String(), wantCode: fiber.StatusForbidden},
		{name: "reprocess", svc: &stubDocumentService{}, method: http.MethodPost, target: "/api/pdfs/" + id.String() + "/process", wantCode: fiber.StatusAccepted},
		{name: "reprocess while processing", svc: &stubDocumentService{reprocessErr: service.ErrAlreadyProcessing}, method: http.MethodPost, target: "/api/pdfs/" + id.String() + "/process", wantCode: fiber.StatusConflict},
		{name: "reprocess all", svc: &stubDocumentService{}, method: http.MethodPost, target: "/api/pdfs/reprocess-all", wantCode: fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, NewDocumentController(tt.svc))
			req := httptest.NewRequest(tt.method, tt.target, nil)
			req.Header.Set("Authorization", bearer(t, uuid.New()))

			code, body := do(t, app, req)

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}
}

func TestDocumentControllerListPassesEmail(t *testing.T) {
	svc := &stubDocumentService{}
	app := newTestApp(t, NewDocumentController(svc))
	req := httptest.NewRequest(http.MethodGet, "/api/pdfs", nil)
	req.Header.Set("Authorization", bearer(t, uuid.New()))

	code, _ := do(t, app, req)

	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "ada@example.com", svc.listEmail)
}

func TestChatController(t *testing.T) {
	pdfId := uuid.New()
	tests := []struct {
		name     string
		svc      *stubChatService
		req      func(t *testing.T) *http.Request
		wantCode int
	}{
		{
			name: "send",
			svc:  &stubChatService{},
			req: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPost, "/api/chat/send", dto.SendMessageRequest{Message: "What is the threshold?", PdfId: pdfId})
			},
			wantCode: fiber.StatusOK,
		},
		{
			name: "send without message",
			svc:  &stubChatService{},
			req: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPost, "/api/chat/send", dto.SendMessageRequest{PdfId: pdfId})
			},
			wantCode: fiber.StatusBadRequest,
		},
		{
			name: "send to missing document",
			svc:  &stubChatService{sendErr: service.ErrDocumentNotFound},
			req: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPost, "/api/chat/send", dto.SendMessageRequest{Message: "hi", PdfId: pdfId})
			},
			wantCode: fiber.StatusNotFound,
		},
		{
			name: "history",
			svc:  &stubChatService{},
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodGet, "/api/chat/history/"+pdfId.String(), nil)
			},
			wantCode: fiber.StatusOK,
		},
		{
			name: "connection up",
			svc:  &stubChatService{connected: true},
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodGet, "/api/chat/test-connection", nil)
			},
			wantCode: fiber.StatusOK,
		},
		{
			name: "connection down",
			svc:  &stubChatService{connected: false},
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodGet, "/api/chat/test-connection", nil)
			},
			wantCode: fiber.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, NewChatController(tt.svc, serverutils.NewRateLimiter(60)))
			req := tt.req(t)
			req.Header.Set("Authorization", bearer(t, uuid.New()))

			code, body := do(t, app, req)

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}
}

func TestChatControllerConnectionPayload(t *testing.T) {
	app := newTestApp(t, NewChatController(&stubChatService{connected: false}, serverutils.NewRateLimiter(60)))
	req := httptest.NewRequest(http.MethodGet, "/api/chat/test-connection", nil)
	req.Header.Set("Authorization", bearer(t, uuid.New()))

	_, body := do(t, app, req)

	var data dto.ConnectionTestResponse
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.False(t, data.Connected)
}

func TestChatControllerRateLimit(t *testing.T) {
	app := newTestApp(t, NewChatController(&stubChatService{connected: true}, serverutils.NewRateLimiter(2)))
	auth := bearer(t, uuid.New())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/chat/test-connection", nil)
		req.Header.Set("Authorization", auth)
		code, _ := do(t, app, req)
		codes = append(codes, code)
	}

	assert.Equal(t, []int{fiber.StatusOK, fiber.StatusOK, fiber.StatusTooManyRequests}, codes)
}

func TestHealthController(t *testing.T) {
	app := newTestApp(t, NewHealthController("test"))

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil), -1)
	require.NoError(t, err)
	defer res.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "test", body["environment"])
	assert.NotEmpty(t, body["timestamp"])
}
