package controller

import (
	"pdf-chat-be/internal/dto"
	"pdf-chat-be/internal/pkg/serverutils"
	"pdf-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Send(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	TestConnection(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
	limiter *serverutils.RateLimiter
}

func NewChatController(service service.IChatService, limiter *serverutils.RateLimiter) IChatController {
	return &chatController{
		service: service,
		limiter: limiter,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat")
	h.Use(serverutils.JwtMiddleware)
	h.Use(c.limiter.Middleware())
	h.Post("/send", c.Send)
	h.Get("/history/:pdfId", c.History)
	h.Get("/test-connection", c.TestConnection)
}

func (c *chatController) Send(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendMessage(ctx.Context(), userId, &req)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Message sent", res))
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	userId, documentId, err := ownerAndDocument(ctx, "pdfId")
	if err != nil {
		return err
	}

	res, err := c.service.GetHistory(ctx.Context(), userId, documentId)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get chat history", res))
}

func (c *chatController) TestConnection(ctx *fiber.Ctx) error {
	connected := c.service.TestConnection(ctx.Context())
	res := dto.ConnectionTestResponse{Connected: connected}
	if !connected {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.BaseResponse[dto.ConnectionTestResponse]{
			Success: false,
			Code:    fiber.StatusInternalServerError,
			Message: "LLM provider is not reachable",
			Data:    res,
		})
	}
	return ctx.JSON(serverutils.SuccessResponse("LLM provider is reachable", res))
}
