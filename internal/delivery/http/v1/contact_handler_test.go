package v1

import (
	"context"
	"encoding/json"
	"errors"
	"go-contact-backend/config"
	"go-contact-backend/internal/domain"
	"go-contact-backend/internal/usecase"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockContactUsecase struct {
	mock.Mock
}

func (m *MockContactUsecase) Submit(ctx context.Context, values map[string]string) (*domain.SubmissionOutcome, error) {
	args := m.Called(ctx, values)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SubmissionOutcome), args.Error(1)
}

func (m *MockContactUsecase) Validate(ctx context.Context, sub domain.Submission) domain.ValidationResult {
	return m.Called(ctx, sub).Get(0).(domain.ValidationResult)
}

func (m *MockContactUsecase) Compose(ctx context.Context, sub domain.Submission) (*domain.OutgoingMessage, domain.Submission, error) {
	args := m.Called(ctx, sub)
	return args.Get(0).(*domain.OutgoingMessage), args.Get(1).(domain.Submission), args.Error(2)
}

type testBody struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"request_id"`
}

func newTestRouter(uc domain.ContactUsecase, contactLimit int, pingers map[string]usecase.Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterDeps{
		ContactUC: uc,
		HealthUC:  usecase.NewHealthUsecase(pingers),
		Config: &config.Config{
			Environment:            "test",
			AllowedOrigins:         []string{"https://data.example.org"},
			ContactRateLimit:       contactLimit,
			RateLimitWindowSeconds: 60,
			RateLimitGlobal:        1000,
		},
	})
}

func postForm(r http.Handler, form url.Values) (*httptest.ResponseRecorder, testBody) {
	req := httptest.NewRequest(http.MethodPost, "/v1/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body testBody
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestSubmitContact(t *testing.T) {
	form := url.Values{
		"email":   {"ada@example.org"},
		"name":    {"Ada"},
		"content": {"Hello"},
	}
	values := map[string]string{"email": "ada@example.org", "name": "Ada", "content": "Hello"}

	t.Run("Should return 200 when the message is sent", func(t *testing.T) {
		uc := new(MockContactUsecase)
		uc.On("Submit", mock.MatchedBy(func(ctx context.Context) bool {
			id, _ := ctx.Value(domain.KeyRequestID).(string)
			return id != ""
		}), values).Return(&domain.SubmissionOutcome{
			Success:      true,
			Data:         domain.Submission(values),
			EmailSuccess: true,
		}, nil)

		w, body := postForm(newTestRouter(uc, 10, nil), form)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, body.Success)
		assert.NotEmpty(t, body.RequestID)
		assert.Equal(t, body.RequestID, w.Header().Get("X-Request-ID"))
		assert.Contains(t, string(body.Data), `"success":true`)
		uc.AssertExpectations(t)
	})

	t.Run("Should return 400 with field errors", func(t *testing.T) {
		uc := new(MockContactUsecase)
		uc.On("Submit", mock.Anything, map[string]string{}).Return(&domain.SubmissionOutcome{
			Data:         domain.Submission{},
			Errors:       map[string][]string{"email": {"Missing Value"}},
			ErrorSummary: map[string]string{"email": "Missing value"},
			EmailSuccess: true,
		}, nil)

		w, body := postForm(newTestRouter(uc, 10, nil), url.Values{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, body.Success)
		assert.Contains(t, string(body.Data), `"email":["Missing Value"]`)
	})

	t.Run("Should return 400 on recaptcha failure", func(t *testing.T) {
		msg := usecase.RecaptchaFailedMessage
		uc := new(MockContactUsecase)
		uc.On("Submit", mock.Anything, values).Return(&domain.SubmissionOutcome{
			Errors:         map[string][]string{},
			ErrorSummary:   map[string]string{},
			RecaptchaError: &msg,
			EmailSuccess:   true,
		}, nil)

		w, body := postForm(newTestRouter(uc, 10, nil), form)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, string(body.Data), msg)
	})

	t.Run("Should return 502 when delivery fails", func(t *testing.T) {
		uc := new(MockContactUsecase)
		uc.On("Submit", mock.Anything, values).Return(&domain.SubmissionOutcome{
			Data:         domain.Submission(values),
			Errors:       map[string][]string{},
			ErrorSummary: map[string]string{},
			EmailSuccess: false,
		}, nil)

		w, body := postForm(newTestRouter(uc, 10, nil), form)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.False(t, body.Success)
	})

	t.Run("Should hide unhandled errors behind a 500", func(t *testing.T) {
		uc := new(MockContactUsecase)
		uc.On("Submit", mock.Anything, values).Return(nil, errors.New("pq: relation does not exist"))

		w, body := postForm(newTestRouter(uc, 10, nil), form)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "pq:")
		assert.False(t, body.Success)
	})

	t.Run("Should accept a flat JSON object", func(t *testing.T) {
		uc := new(MockContactUsecase)
		uc.On("Submit", mock.Anything, values).Return(&domain.SubmissionOutcome{Success: true, EmailSuccess: true}, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/contact",
			strings.NewReader(`{"email":"ada@example.org","name":"Ada","content":"Hello"}`))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		w := httptest.NewRecorder()
		newTestRouter(uc, 10, nil).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		uc.AssertExpectations(t)
	})

	t.Run("Should merge query values with the body taking precedence", func(t *testing.T) {
		uc := new(MockContactUsecase)
		uc.On("Submit", mock.Anything, map[string]string{
			"email":        "ada@example.org",
			"name":         "Ada",
			"content":      "Hello",
			"form_variant": "suggest_dataset",
			"pkg-id":       "rivers",
		}).Return(&domain.SubmissionOutcome{Success: true, EmailSuccess: true}, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/contact?form_variant=suggest_dataset&pkg-id=rivers&name=Query",
			strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		newTestRouter(uc, 10, nil).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		uc.AssertExpectations(t)
	})

	t.Run("Should reject nested JSON", func(t *testing.T) {
		uc := new(MockContactUsecase)

		req := httptest.NewRequest(http.MethodPost, "/v1/contact", strings.NewReader(`{"email":{"a":1}}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		newTestRouter(uc, 10, nil).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		uc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("Should rate limit repeated submissions", func(t *testing.T) {
		uc := new(MockContactUsecase)
		uc.On("Submit", mock.Anything, values).Return(&domain.SubmissionOutcome{Success: true, EmailSuccess: true}, nil)
		r := newTestRouter(uc, 2, nil)

		for i := 0; i < 2; i++ {
			w, _ := postForm(r, form)
			require.Equal(t, http.StatusOK, w.Code)
		}
		w, _ := postForm(r, form)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		uc.AssertNumberOfCalls(t, "Submit", 2)
	})
}

func TestCORS(t *testing.T) {
	r := newTestRouter(new(MockContactUsecase), 10, nil)

	t.Run("Should allow configured origin preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/v1/contact", nil)
		req.Header.Set("Origin", "https://data.example.org")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://data.example.org", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Should refuse unknown origin preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/v1/contact", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestHealth(t *testing.T) {
	t.Run("Should report healthy dependencies", func(t *testing.T) {
		r := newTestRouter(new(MockContactUsecase), 10, map[string]usecase.Pinger{
			"database": func(context.Context) error { return nil },
			"redis":    nil,
		})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"redis":"disabled"`)
	})

	t.Run("Should return 503 when a dependency is down", func(t *testing.T) {
		r := newTestRouter(new(MockContactUsecase), 10, map[string]usecase.Pinger{
			"database": func(context.Context) error { return errors.New("down") },
		})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"database":"unavailable"`)
	})
}
