package controller

import (
	"errors"

	"pdf-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

var errorStatus = []struct {
	err  error
	code int
}{
	{service.ErrDocumentNotFound, fiber.StatusNotFound},
	{service.ErrUserNotFound, fiber.StatusNotFound},
	{service.ErrForbidden, fiber.StatusForbidden},
	{service.ErrAlreadyProcessing, fiber.StatusConflict},
	{service.ErrEmailTaken, fiber.StatusConflict},
	{service.ErrInvalidCredentials, fiber.StatusUnauthorized},
	{service.ErrInvalidGoogleToken, fiber.StatusUnauthorized},
	{service.ErrGoogleEmailUnverified, fiber.StatusBadRequest},
	{service.ErrInvalidOAuthState, fiber.StatusBadRequest},
	{service.ErrUnsupportedProvider, fiber.StatusBadRequest},
	{service.ErrNotPDF, fiber.StatusBadRequest},
	{service.ErrEmptyFile, fiber.StatusBadRequest},
	{service.ErrFileTooLarge, fiber.StatusRequestEntityTooLarge},
}

// toHTTPError turns service sentinels into fiber errors. Anything else is
// passed through and rendered as a 500 by serverutils.ErrorHandler.
func toHTTPError(err error) error {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return fiber.NewError(e.code, e.err.Error())
		}
	}
	return err
}
