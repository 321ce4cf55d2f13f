package mocks

import (
	"io"

	"casedocs/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockIngester struct {
	mock.Mock
}

func (m *MockIngester) Ingest(r io.Reader, filename, caseID, uploadedBy string) (*model.Document, error) {
	args := m.Called(r, filename, caseID, uploadedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockIngester) Delete(documentID, caseID string) error {
	args := m.Called(documentID, caseID)
	return args.Error(0)
}
