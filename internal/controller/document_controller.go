package controller

import (
	"io"

	"pdf-chat-be/internal/dto"
	"pdf-chat-be/internal/pkg/serverutils"
	"pdf-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Get(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Reprocess(ctx *fiber.Ctx) error
	ReprocessAll(ctx *fiber.Ctx) error
}

type documentController struct {
	service service.IDocumentService
}

func NewDocumentController(service service.IDocumentService) IDocumentController {
	return &documentController{service: service}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/pdfs")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/upload", c.Upload)
	h.Post("/reprocess-all", c.ReprocessAll)
	h.Get("", c.List)
	h.Get("/:id", c.Get)
	h.Delete("/:id", c.Delete)
	h.Post("/:id/process", c.Reprocess)
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	header, err := ctx.FormFile("pdf")
	if err != nil {
		return toHTTPError(service.ErrEmptyFile)
	}
	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	email, _ := ctx.Locals("email").(string)
	res, err := c.service.Upload(ctx.Context(), &dto.UploadDocumentRequest{
		OwnerId:     userId,
		OwnerEmail:  email,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Data:        data,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.CreatedResponse("PDF uploaded successfully", res))
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	email, _ := ctx.Locals("email").(string)

	res, err := c.service.List(ctx.Context(), userId, email)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get all PDFs", res))
}

func (c *documentController) Get(ctx *fiber.Ctx) error {
	userId, documentId, err := ownerAndDocument(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.Get(ctx.Context(), userId, documentId)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get PDF", res))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	userId, documentId, err := ownerAndDocument(ctx, "id")
	if err != nil {
		return err
	}

	if err := c.service.Delete(ctx.Context(), userId, documentId); err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("PDF deleted successfully", nil))
}

func (c *documentController) Reprocess(ctx *fiber.Ctx) error {
	userId, documentId, err := ownerAndDocument(ctx, "id")
	if err != nil {
		return err
	}

	if err := c.service.Reprocess(ctx.Context(), userId, documentId); err != nil {
		return toHTTPError(err)
	}
	res := serverutils.SuccessResponse("Processing started", fiber.Map{"id": documentId})
	res.Code = fiber.StatusAccepted
	return ctx.Status(fiber.StatusAccepted).JSON(res)
}

func (c *documentController) ReprocessAll(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ReprocessAll(ctx.Context(), userId)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Reprocessing queued", res))
}

func ownerAndDocument(ctx *fiber.Ctx, param string) (uuid.UUID, uuid.UUID, error) {
	userId, err := serverutils.CurrentUserID(ctx)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	documentId, err := uuid.Parse(ctx.Params(param))
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid PDF id")
	}
	return userId, documentId, nil
}
