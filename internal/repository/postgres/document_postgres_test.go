package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"casedocs/internal/model"
	"casedocs/internal/repository"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

var documentColumnNames = []string{
	"id", "case_id", "original_filename", "stored_filename", "storage_path",
	"size", "sha256", "file_type", "content_type", "uploaded_by",
	"uploaded_at", "ocr_status", "tags", "version",
}

func documentRow(doc *model.Document) *sqlmock.Rows {
	return sqlmock.NewRows(documentColumnNames).AddRow(
		doc.ID, doc.CaseID, doc.OriginalFilename, doc.StoredFilename,
		doc.StoragePath, doc.Size, doc.SHA256, doc.FileType, doc.ContentType,
		doc.UploadedBy, doc.UploadedAt, string(doc.OCRStatus), `["urgent"]`,
		doc.Version,
	)
}

func testDocument() *model.Document {
	return &model.Document{
		ID:               "test-uuid",
		CaseID:           "SAML-00001",
		OriginalFilename: "notes.txt",
		StoredFilename:   "test-uuid.txt",
		StoragePath:      "uploads/SAML-00001/test-uuid.txt",
		Size:             10,
		SHA256:           "abc123",
		FileType:         "txt",
		ContentType:      "text/plain",
		UploadedBy:       "Chris Hallberg",
		UploadedAt:       time.Now().UTC(),
		OCRStatus:        model.StatusPending,
		Tags:             []string{"urgent"},
		Version:          1,
	}
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	doc := testDocument()

	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(doc.ID, doc.CaseID, doc.OriginalFilename, doc.StoredFilename,
			doc.StoragePath, doc.Size, doc.SHA256, doc.FileType, doc.ContentType,
			doc.UploadedBy, doc.UploadedAt, doc.OCRStatus, `["urgent"]`, doc.Version).
		WillReturnRows(documentRow(doc))

	result, err := repo.Create(ctx, doc)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, doc.ID, result.ID)
	assert.Equal(t, []string{"urgent"}, result.Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		doc := testDocument()
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("test-uuid").
			WillReturnRows(documentRow(doc))

		got, err := repo.FindByID(ctx, "test-uuid")

		assert.NoError(t, err)
		assert.NotNil(t, got)
		assert.Equal(t, "SAML-00001", got.CaseID)
		assert.Equal(t, model.StatusPending, got.OCRStatus)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, got)
	})
}

func TestDocumentPostgres_ListByCase(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents WHERE case_id").
		WithArgs("SAML-00001").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery("SELECT (.+) FROM documents WHERE case_id = (.+) ORDER BY").
		WithArgs("SAML-00001", 10, 0).
		WillReturnRows(documentRow(testDocument()))

	res, err := repo.ListByCase(ctx, "SAML-00001", repository.PageQuery{Limit: 10, Offset: 0})

	assert.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Len(t, res.Items, 1)
	assert.Equal(t, "test-uuid", res.Items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_UpdateOCRStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("updated", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET ocr_status").
			WithArgs(model.StatusDone, "test-uuid").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateOCRStatus(ctx, "test-uuid", model.StatusDone))
	})

	t.Run("missing row", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET ocr_status").
			WithArgs(model.StatusDone, "missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateOCRStatus(ctx, "missing", model.StatusDone)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestDocumentPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM documents WHERE id = ?").
		WithArgs("test-uuid").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Delete(ctx, "test-uuid")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
