package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"casedocs/internal/ingest"
	"casedocs/internal/model"
	"casedocs/internal/repository"
	"casedocs/internal/storage"
)

var (
	ErrIDRequired      = errors.New("id is required")
	ErrCaseIDRequired  = errors.New("case id is required")
	ErrNotFound        = errors.New("document not found")
	ErrInvalidStatus   = errors.New("invalid ocr status")
	ErrArchiveDisabled = errors.New("archival is not configured")
)

// Ingester is the filesystem side of document handling, implemented by
// *ingest.Service. The service layer owns the ordering between disk and
// database; the ingester owns the disk.
type Ingester interface {
	Ingest(r io.Reader, filename, caseID, uploadedBy string) (*model.Document, error)
	Delete(documentID, caseID string) error
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// DocumentService defines the use cases for handling case documents.
type DocumentService interface {
	// Upload ingests the content to local disk, saves metadata to DB, and
	// rolls back the stored file if the DB save fails.
	Upload(ctx context.Context, r io.Reader, filename, caseID, uploadedBy string) (*model.Document, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// ListByCase returns a case's documents using limit/offset and a total count.
	ListByCase(ctx context.Context, caseID string, limit, offset int) (*DocumentListResult, error)

	// Delete removes a document's stored file and its metadata row.
	Delete(ctx context.Context, id string) error

	// UpdateOCRStatus records a text-extraction state transition made by the
	// external extraction worker.
	UpdateOCRStatus(ctx context.Context, id string, status model.OCRStatus) error

	// Archive copies the stored file to the off-site object store and returns
	// the archive key.
	Archive(ctx context.Context, id string) (string, error)

	// ArchiveURL returns a time-limited download URL for the archived copy.
	ArchiveURL(ctx context.Context, id string, expiry time.Duration) (string, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	ing      Ingester
	repo     repository.DocumentRepository
	archiver storage.ObjectStore // nil when archival is disabled
}

// NewDocumentService constructs a new DocumentService. archiver may be nil,
// in which case Archive and ArchiveURL fail with ErrArchiveDisabled.
func NewDocumentService(ing Ingester, repo repository.DocumentRepository, archiver storage.ObjectStore) DocumentService {
	return &documentService{ing: ing, repo: repo, archiver: archiver}
}

func (s *documentService) Upload(ctx context.Context, r io.Reader, filename, caseID, uploadedBy string) (*model.Document, error) {
	if caseID == "" {
		return nil, ErrCaseIDRequired
	}

	doc, err := s.ing.Ingest(r, filename, caseID, uploadedBy)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// Rollback: remove the just-written file so disk and DB stay in sync.
		if delErr := s.ing.Delete(doc.ID, caseID); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// ListByCase returns paginated documents without exposing repository types.
func (s *documentService) ListByCase(ctx context.Context, caseID string, limit, offset int) (*DocumentListResult, error) {
	if caseID == "" {
		return nil, ErrCaseIDRequired
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.ListByCase(ctx, caseID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

// Delete removes the stored file first, then the metadata row. A file already
// missing on disk is tolerated so a half-deleted document can be cleaned up.
func (s *documentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if err := s.ing.Delete(doc.ID, doc.CaseID); err != nil && !errors.Is(err, ingest.ErrNotFound) {
		return fmt.Errorf("delete stored file: %w", err)
	}
	return s.repo.Delete(ctx, id)
}

func (s *documentService) UpdateOCRStatus(ctx context.Context, id string, status model.OCRStatus) error {
	if id == "" {
		return ErrIDRequired
	}
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := s.repo.UpdateOCRStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Archive streams the stored file to the object store under
// cases/{caseID}/{storedFilename}.
func (s *documentService) Archive(ctx context.Context, id string) (string, error) {
	if s.archiver == nil {
		return "", ErrArchiveDisabled
	}
	doc, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	f, err := os.Open(doc.StoragePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("open stored file: %w", err)
	}
	defer f.Close()

	key := archiveKey(doc)
	_, err = s.archiver.Put(ctx, key, f, storage.PutOptions{
		Size:        doc.Size,
		ContentType: doc.ContentType,
		Metadata: map[string]string{
			"original-filename": doc.OriginalFilename,
			"sha256":            doc.SHA256,
		},
	})
	if err != nil {
		return "", fmt.Errorf("archive upload: %w", err)
	}
	return key, nil
}

func (s *documentService) ArchiveURL(ctx context.Context, id string, expiry time.Duration) (string, error) {
	if s.archiver == nil {
		return "", ErrArchiveDisabled
	}
	doc, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	u, err := s.archiver.PresignGet(ctx, archiveKey(doc), expiry)
	if err != nil {
		return "", fmt.Errorf("presign archive url: %w", err)
	}
	return u, nil
}

func archiveKey(doc *model.Document) string {
	return path.Join("cases", doc.CaseID, doc.StoredFilename)
}
