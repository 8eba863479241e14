package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body io.Reader) BaseResponse[any] {
	t.Helper()
	var res BaseResponse[any]
	require.NoError(t, json.NewDecoder(body).Decode(&res))
	return res
}

func protectedApp() *fiber.App {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/me", JwtMiddleware, func(ctx *fiber.Ctx) error {
		id, err := CurrentUserID(ctx)
		if err != nil {
			return err
		}
		return ctx.JSON(SuccessResponse("me", fiber.Map{"id": id.String(), "email": ctx.Locals("email")}))
	})
	return app
}

func TestJwtMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	userID := uuid.New()

	valid, err := IssueToken(userID, "ada@example.com", "test-secret", time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(userID, "ada@example.com", "test-secret", -time.Hour)
	require.NoError(t, err)
	foreign, err := IssueToken(userID, "ada@example.com", "other-secret", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Token " + valid, fiber.StatusUnauthorized},
		{"expired", "Bearer " + expired, fiber.StatusForbidden},
		{"wrong secret", "Bearer " + foreign, fiber.StatusForbidden},
		{"valid", "Bearer " + valid, fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := protectedApp().Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body := decode(t, resp.Body)
			if tt.wantStatus == fiber.StatusOK {
				data := body.Data.(map[string]interface{})
				assert.Equal(t, userID.String(), data["id"])
				assert.Equal(t, "ada@example.com", data["email"])
			} else {
				assert.False(t, body.Success)
			}
		})
	}
}

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(signupRequest{Email: "a@b.co", Password: "secret"}))

	err := ValidateRequest(signupRequest{Email: "nope", Password: "123"})
	var fe *fiber.Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, fiber.StatusBadRequest, fe.Code)
	assert.Contains(t, fe.Message, "email must be a valid email")
	assert.Contains(t, fe.Message, "password must be at least 6 characters")
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/teapot", func(ctx *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })
	app.Get("/boom", func(ctx *fiber.Ctx) error { return errors.New("db exploded") })

	resp, err := app.Test(httptest.NewRequest("GET", "/teapot", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "short and stout", decode(t, resp.Body).Message)

	resp, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	body := decode(t, resp.Body)
	assert.Equal(t, "Internal server error", body.Message)
	assert.EqualValues(t, 500, body.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("user-a"), "request %d should pass", i)
	}
	assert.False(t, rl.Allow("user-a"))
	assert.True(t, rl.Allow("user-b"))
}

func TestRateLimiterMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(NewRateLimiter(1).Middleware())
	app.Get("/", func(ctx *fiber.Ctx) error { return ctx.SendStatus(fiber.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}
