// Package clients provides HTTP clients for the registry API.
package clients

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/landreg/title-registry-backend/api"
	"github.com/landreg/title-registry-backend/interfaces"
	"github.com/landreg/title-registry-backend/sigverify"
)

// RegistryClient implements api.TitleRegistryClient over HTTP. When Key is
// set, mutating requests carry a signed-request header identifying the
// caller.
type RegistryClient struct {
	// ServerAddr is the base URL of the registry server.
	ServerAddr string

	// Key signs request bodies for authenticated endpoints. Optional for
	// read-only use.
	Key *ecdsa.PrivateKey

	// HTTPClient defaults to http.DefaultClient when nil.
	HTTPClient *http.Client
}

func (c *RegistryClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *RegistryClient) doJSON(method, path string, reqBody, respBody any, signed bool) error {
	var body []byte
	if reqBody != nil {
		var err error
		body, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("could not marshal request: %w", err)
		}
	}

	httpReq, err := http.NewRequest(method, c.ServerAddr+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	if signed {
		if c.Key == nil {
			return fmt.Errorf("endpoint %s requires a signing key", path)
		}
		header, err := sigverify.SignRequestBody(body, c.Key)
		if err != nil {
			return fmt.Errorf("could not sign request: %w", err)
		}
		httpReq.Header.Set(api.SignatureHeader, header)
	}

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return fmt.Errorf("could not reach registry server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("registry server returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return fmt.Errorf("could not parse response: %w", err)
		}
	}
	return nil
}

// AddTitle creates a new title record. Administrator key required.
func (c *RegistryClient) AddTitle(req *api.AddTitleRequest) (*api.AddTitleResponse, error) {
	var resp api.AddTitleResponse
	if err := c.doJSON(http.MethodPost, "/api/titles", req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchTitle retrieves a title snapshot by index.
func (c *RegistryClient) FetchTitle(index uint64) (*interfaces.Title, error) {
	var title interfaces.Title
	if err := c.doJSON(http.MethodGet, fmt.Sprintf("/api/titles/%d", index), nil, &title, false); err != nil {
		return nil, err
	}
	return &title, nil
}

// RegisterTitle completes registration of the title at index. The client key
// must be the title owner's.
func (c *RegistryClient) RegisterTitle(index uint64, req *api.RegisterTitleRequest) error {
	return c.doJSON(http.MethodPost, fmt.Sprintf("/api/titles/%d/register", index), req, nil, true)
}

// ProcessSignature recovers the signer of a canonical title message.
func (c *RegistryClient) ProcessSignature(req *api.ProcessSignatureRequest) (*api.ProcessSignatureResponse, error) {
	var resp api.ProcessSignatureResponse
	if err := c.doJSON(http.MethodPost, "/api/signatures/process", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Events retrieves the ordered event log snapshot.
func (c *RegistryClient) Events() (*api.EventsResponse, error) {
	var resp api.EventsResponse
	if err := c.doJSON(http.MethodGet, "/api/events", nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadDocument stores a document in the archive and returns its content ID.
func (c *RegistryClient) UploadDocument(contentType interfaces.ContentType, data []byte) (*api.UploadDocumentResponse, error) {
	url := fmt.Sprintf("%s/api/documents/%s", c.ServerAddr, contentType)
	httpReq, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/octet-stream")

	if c.Key != nil {
		header, err := sigverify.SignRequestBody(data, c.Key)
		if err != nil {
			return nil, fmt.Errorf("could not sign request: %w", err)
		}
		httpReq.Header.Set(api.SignatureHeader, header)
	}

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("could not reach registry server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("registry server returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var uploadResp api.UploadDocumentResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return nil, fmt.Errorf("could not parse response: %w", err)
	}
	return &uploadResp, nil
}

// FetchDocument retrieves an archived document by content ID.
func (c *RegistryClient) FetchDocument(contentType interfaces.ContentType, id interfaces.ContentID) ([]byte, error) {
	url := fmt.Sprintf("%s/api/documents/%s/%s", c.ServerAddr, contentType, id)
	resp, err := c.httpClient().Get(url)
	if err != nil {
		return nil, fmt.Errorf("could not reach registry server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("registry server returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	return io.ReadAll(resp.Body)
}
