package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/landreg/title-registry-backend/interfaces"
)

// IPFSBackend archives title documents on an IPFS node. Content lives under
// deterministic MFS paths keyed by content ID, so any node holding the
// archive root can serve fetches.
type IPFSBackend struct {
	shell       *shell.Shell
	host        string
	port        string
	log         *slog.Logger
	locationURI string
}

// archiveRoot is the MFS directory holding the document archive.
const archiveRoot = "/title-archive"

// NewIPFSBackend creates an IPFS archive backend connected to the node API
// at host:port.
func NewIPFSBackend(host, port string, log *slog.Logger) (*IPFSBackend, error) {
	apiURL := fmt.Sprintf("%s:%s", host, port)

	return &IPFSBackend{
		shell:       shell.NewShell(apiURL),
		host:        host,
		port:        port,
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s/", apiURL),
	}, nil
}

func (b *IPFSBackend) mfsPath(id interfaces.ContentID, contentType interfaces.ContentType) string {
	return fmt.Sprintf("%s/%ss/%s", archiveRoot, contentType.String(), id.String())
}

// Fetch retrieves an archived document from the node's MFS by content ID.
func (b *IPFSBackend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	if !b.shell.IsUp() {
		return nil, interfaces.ErrBackendUnavailable
	}

	reader, err := b.shell.FilesRead(ctx, b.mfsPath(id, contentType))
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") {
			return nil, interfaces.ErrContentNotFound
		}
		return nil, fmt.Errorf("%w: ipfs files read: %v", interfaces.ErrBackendUnavailable, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading ipfs content: %v", interfaces.ErrBackendUnavailable, err)
	}

	return data, nil
}

// Store writes a document into the node's MFS and returns its content ID.
func (b *IPFSBackend) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	id := interfaces.ComputeContentID(data)

	if !b.shell.IsUp() {
		return id, interfaces.ErrBackendUnavailable
	}

	err := b.shell.FilesWrite(ctx, b.mfsPath(id, contentType), bytes.NewReader(data),
		shell.FilesWrite.Create(true),
		shell.FilesWrite.Parents(true),
		shell.FilesWrite.Truncate(true))
	if err != nil {
		return id, fmt.Errorf("%w: ipfs files write: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Debug("Stored archive content",
		slog.String("contentID", id.String()),
		slog.String("contentType", contentType.String()),
		slog.String("backend", b.Name()))
	return id, nil
}

// Available checks whether the IPFS node API responds.
func (b *IPFSBackend) Available(ctx context.Context) bool {
	return b.shell.IsUp()
}

// Name returns a short identifier for logging.
func (b *IPFSBackend) Name() string {
	return fmt.Sprintf("ipfs(%s:%s)", b.host, b.port)
}

// LocationURI returns the URI identifying this backend.
func (b *IPFSBackend) LocationURI() string {
	return b.locationURI
}
