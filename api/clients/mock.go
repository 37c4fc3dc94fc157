package clients

import (
	"github.com/stretchr/testify/mock"

	"github.com/landreg/title-registry-backend/api"
	"github.com/landreg/title-registry-backend/interfaces"
)

// MockRegistryClient is a testify mock of api.TitleRegistryClient.
type MockRegistryClient struct {
	mock.Mock
}

func (m *MockRegistryClient) AddTitle(req *api.AddTitleRequest) (*api.AddTitleResponse, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.AddTitleResponse), args.Error(1)
}

func (m *MockRegistryClient) FetchTitle(index uint64) (*interfaces.Title, error) {
	args := m.Called(index)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.Title), args.Error(1)
}

func (m *MockRegistryClient) RegisterTitle(index uint64, req *api.RegisterTitleRequest) error {
	args := m.Called(index, req)
	return args.Error(0)
}

func (m *MockRegistryClient) ProcessSignature(req *api.ProcessSignatureRequest) (*api.ProcessSignatureResponse, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.ProcessSignatureResponse), args.Error(1)
}

func (m *MockRegistryClient) Events() (*api.EventsResponse, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.EventsResponse), args.Error(1)
}

func (m *MockRegistryClient) UploadDocument(contentType interfaces.ContentType, data []byte) (*api.UploadDocumentResponse, error) {
	args := m.Called(contentType, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.UploadDocumentResponse), args.Error(1)
}

func (m *MockRegistryClient) FetchDocument(contentType interfaces.ContentType, id interfaces.ContentID) ([]byte, error) {
	args := m.Called(contentType, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
