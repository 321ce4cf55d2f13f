package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"casedocs/internal/ingest"
	"casedocs/internal/model"
	"casedocs/internal/service"
)

// UploadDocument handles multipart uploads into a case.
// Expects the file under form field "file" and the uploader name under
// "uploaded_by".
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caseID := c.Params("caseID")

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		uploadedBy := c.FormValue("uploaded_by")

		doc, err := svc.Upload(c.UserContext(), f, fh.Filename, caseID, uploadedBy)
		if err != nil {
			return writeUploadError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// writeUploadError maps ingestion failures to HTTP responses, keeping the
// ingest error messages intact since they are written for display (allowed
// types, size limit).
func writeUploadError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ingest.ErrNoFile):
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", err.Error())
	case errors.Is(err, ingest.ErrUnsupportedType):
		return writeError(c, fiber.StatusUnsupportedMediaType, "UNSUPPORTED_TYPE", err.Error())
	case errors.Is(err, ingest.ErrFileTooLarge):
		return writeError(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error())
	case errors.Is(err, service.ErrCaseIDRequired):
		return writeError(c, fiber.StatusBadRequest, "CASE_ID_REQUIRED", "case id is required")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ListDocuments returns a case's documents with limit/offset pagination.
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caseID := c.Params("caseID")

		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.ListByCase(c.UserContext(), caseID, limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// GetDocument returns a single document's metadata.
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeLookupError(c, err)
		}
		return c.JSON(doc)
	}
}

// DownloadDocument streams the stored file from disk with its original
// filename as the download name.
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeLookupError(c, err)
		}
		c.Set(fiber.HeaderContentType, doc.ContentType)
		return c.Download(doc.StoragePath, doc.OriginalFilename)
	}
}

// DeleteDocument removes the stored file and the metadata row.
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("id")); err != nil {
			return writeLookupError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ocrStatusRequest is the body of the text-extraction worker's callback.
type ocrStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOCRStatus lets the extraction worker move a document between
// pending, processing, done, and failed.
func UpdateOCRStatus(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ocrStatusRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		err := svc.UpdateOCRStatus(c.UserContext(), c.Params("id"), model.OCRStatus(req.Status))
		if err != nil {
			if errors.Is(err, service.ErrInvalidStatus) {
				return writeError(c, fiber.StatusBadRequest, "INVALID_STATUS", err.Error())
			}
			return writeLookupError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ArchiveDocument copies the stored file to the off-site object store.
func ArchiveDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, err := svc.Archive(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.Is(err, service.ErrArchiveDisabled) {
				return writeError(c, fiber.StatusServiceUnavailable, "ARCHIVE_DISABLED", "archival is not configured")
			}
			return writeLookupError(c, err)
		}
		return c.JSON(fiber.Map{"archive_key": key})
	}
}

// ArchiveURL returns a time-limited download URL for the archived copy.
func ArchiveURL(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := svc.ArchiveURL(c.UserContext(), c.Params("id"), 15*time.Minute)
		if err != nil {
			if errors.Is(err, service.ErrArchiveDisabled) {
				return writeError(c, fiber.StatusServiceUnavailable, "ARCHIVE_DISABLED", "archival is not configured")
			}
			return writeLookupError(c, err)
		}
		return c.JSON(fiber.Map{"url": u})
	}
}

// writeLookupError maps the common id-based failures shared by the
// metadata routes.
func writeLookupError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
