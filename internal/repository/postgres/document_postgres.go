package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"casedocs/internal/model"
	"casedocs/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
// Tags are stored as a JSON array in a TEXT column so the row stays portable
// across drivers.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, case_id, original_filename, stored_filename, storage_path, size, sha256, file_type, content_type, uploaded_by, uploaded_at, ocr_status, tags, version`

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + documentColumns

	tags, err := encodeTags(doc.Tags)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.CaseID,
		doc.OriginalFilename,
		doc.StoredFilename,
		doc.StoragePath,
		doc.Size,
		doc.SHA256,
		doc.FileType,
		doc.ContentType,
		doc.UploadedBy,
		doc.UploadedAt,
		doc.OCRStatus,
		tags,
		doc.Version,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// ListByCase returns a case's documents using LIMIT/OFFSET pagination and a
// total count.
func (r *DocumentPostgres) ListByCase(ctx context.Context, caseID string, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	const qCount = `SELECT COUNT(*) FROM documents WHERE case_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, caseID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE case_id = $1
		ORDER BY uploaded_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, caseID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// UpdateOCRStatus sets the ocr_status column. It returns sql.ErrNoRows when
// the document does not exist so the service layer can map it to not-found.
func (r *DocumentPostgres) UpdateOCRStatus(ctx context.Context, id string, status model.OCRStatus) error {
	const q = `UPDATE documents SET ocr_status = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, q, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a document by ID. It does not return an error if the row
// does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var d model.Document
	var tags string
	if err := row.Scan(
		&d.ID,
		&d.CaseID,
		&d.OriginalFilename,
		&d.StoredFilename,
		&d.StoragePath,
		&d.Size,
		&d.SHA256,
		&d.FileType,
		&d.ContentType,
		&d.UploadedBy,
		&d.UploadedAt,
		&d.OCRStatus,
		&tags,
		&d.Version,
	); err != nil {
		return nil, err
	}
	if err := decodeTags(tags, &d.Tags); err != nil {
		return nil, err
	}
	return &d, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func decodeTags(raw string, out *[]string) error {
	if raw == "" {
		*out = []string{}
		return nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode tags: %w", err)
	}
	return nil
}
