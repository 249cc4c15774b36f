package mocks

import (
	"context"
	"io"

	"docuvault/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) PlaceUpload(ctx context.Context, tempPath, folderName, filename string) (*storage.Placement, error) {
	args := m.Called(ctx, tempPath, folderName, filename)
	if p, ok := args.Get(0).(*storage.Placement); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFileStore) ArchiveVersion(ctx context.Context, relPath string, version int) (*storage.Placement, error) {
	args := m.Called(ctx, relPath, version)
	if p, ok := args.Get(0).(*storage.Placement); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFileStore) Remove(relPath string) error {
	args := m.Called(relPath)
	return args.Error(0)
}

func (m *MockFileStore) RemoveFolder(folderName string) error {
	args := m.Called(folderName)
	return args.Error(0)
}

func (m *MockFileStore) Open(relPath string) (io.ReadCloser, error) {
	args := m.Called(relPath)
	if rc, ok := args.Get(0).(io.ReadCloser); ok {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFileStore) Exists(relPath string) bool {
	args := m.Called(relPath)
	return args.Bool(0)
}
