package repository

import (
	"context"

	"casedocs/internal/model"
)

// DocumentRepository defines data access for document metadata using SQL
// queries only. No business logic here — strictly persistence operations.
// The filesystem side of a document lives in the ingest package; this layer
// is the identifier→path index the route layer queries instead of scanning
// directories.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// ListByCase returns a paginated list of a case's documents and the
	// total row count for that case.
	ListByCase(ctx context.Context, caseID string, pq PageQuery) (*PageResult[model.Document], error)

	// UpdateOCRStatus sets the text-extraction state of a document.
	UpdateOCRStatus(ctx context.Context, id string, status model.OCRStatus) error

	// Delete removes a document by ID. It returns nil if the row was deleted
	// or did not exist.
	Delete(ctx context.Context, id string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
