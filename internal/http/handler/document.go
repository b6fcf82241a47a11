package handler

import (
	"io"
	"mime"
	"strings"

	"github.com/gofiber/fiber/v2"

	"kvgportal/internal/model"
	"kvgportal/internal/service"
	"kvgportal/internal/upload"
)

// dataURLUpload is the JSON form of an upload, as sent by FileReader.readAsDataURL.
type dataURLUpload struct {
	Kind     string `json:"kind"`
	Filename string `json:"filename"`
	DataURL  string `json:"data_url"`
}

// UploadDocument godoc
// @Summary Upload an identity document
// @Description multipart/form-data with fields kind and file, or JSON {kind, filename, data_url}.
// @Tags documents
// @Accept mpfd
// @Accept json
// @Produce json
// @Param id path string true "Applicant ID"
// @Param kind formData string true "id_front, id_back, insurance_card or other"
// @Param file formData file true "Document (jpg, png or pdf)"
// @Success 201 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Failure 413 {object} errorPayload
// @Failure 415 {object} errorPayload
// @Router /api/applicants/{id}/documents [post]
func UploadDocument(svc service.DocumentService, maxBytes int64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return invalidID(c)
		}

		var (
			kind string
			f    upload.File
			err  error
		)
		if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
			var body dataURLUpload
			if err := c.BodyParser(&body); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
			}
			if body.DataURL == "" {
				return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
			}
			kind = body.Kind
			f, err = upload.FromDataURL(body.Filename, body.DataURL, maxBytes)
		} else {
			fh, ferr := c.FormFile("file")
			if ferr != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
			}
			if maxBytes > 0 && fh.Size > maxBytes {
				return writeServiceError(c, upload.ErrTooLarge)
			}
			src, oerr := fh.Open()
			if oerr != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer src.Close()
			data, rerr := io.ReadAll(io.LimitReader(src, fh.Size+1))
			if rerr != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot read uploaded file")
			}
			kind = c.FormValue("kind")
			f, err = upload.New(fh.Filename, data, maxBytes)
		}
		if err != nil {
			return writeServiceError(c, err)
		}

		doc, err := svc.Upload(c.UserContext(), id, model.DocumentKind(kind), f)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// ListDocuments godoc
// @Summary List an applicant's documents
// @Tags documents
// @Produce json
// @Param id path string true "Applicant ID"
// @Success 200 {array} model.Document
// @Router /api/applicants/{id}/documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return invalidID(c)
		}
		docs, err := svc.List(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		if docs == nil {
			docs = []model.Document{}
		}
		return c.JSON(fiber.Map{"data": docs})
	}
}

// DeleteDocument godoc
// @Summary Delete a document
// @Tags admin
// @Param id path string true "Document ID"
// @Success 204
// @Failure 404 {object} errorPayload
// @Router /api/admin/documents/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return invalidID(c)
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DownloadDocument godoc
// @Summary Download a document
// @Tags admin
// @Produce octet-stream
// @Param id path string true "Document ID"
// @Success 200 {file} file
// @Failure 404 {object} errorPayload
// @Router /api/admin/documents/{id}/download [get]
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return invalidID(c)
		}
		doc, rc, err := svc.Open(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return sendDocument(c, doc, rc)
	}
}

// CombinedPDF godoc
// @Summary Download the combined identity PDF
// @Description Builds the PDF from id_front and id_back if it does not exist yet.
// @Tags admin
// @Produce application/pdf
// @Param id path string true "Applicant ID"
// @Success 200 {file} file
// @Failure 409 {object} errorPayload
// @Router /api/admin/applicants/{id}/combined [get]
func CombinedPDF(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return invalidID(c)
		}
		doc, err := svc.Combined(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		doc, rc, err := svc.Open(c.UserContext(), doc.ID)
		if err != nil {
			return writeServiceError(c, err)
		}
		return sendDocument(c, doc, rc)
	}
}

// sendDocument streams rc; fasthttp closes it once the body is written.
func sendDocument(c *fiber.Ctx, doc *model.Document, rc io.ReadCloser) error {
	name := doc.OriginalFilename
	if name == "" {
		name = doc.Filename
	}
	c.Set(fiber.HeaderContentType, doc.ContentType)
	c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Set(fiber.HeaderCacheControl, "no-store")
	size := int(doc.Size)
	if size <= 0 {
		size = -1
	}
	return c.SendStream(rc, size)
}
