package httpserver

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/landreg/title-registry-backend/api"
	"github.com/landreg/title-registry-backend/interfaces"
	"github.com/landreg/title-registry-backend/metrics"
	"github.com/landreg/title-registry-backend/sigverify"
)

// maxBodySize caps request bodies. Deed scans are the largest legitimate
// payload.
const maxBodySize = 16 * 1024 * 1024

// Handler processes HTTP requests for the title registry service. It wires
// the registry engine and the document archive behind the JSON API.
type Handler struct {
	registry interfaces.TitleRegistry
	archive  interfaces.StorageBackend
	log      *slog.Logger
}

// NewHandler creates an HTTP request handler backed by the given engine and
// document archive. The archive may be nil, disabling document endpoints.
func NewHandler(registry interfaces.TitleRegistry, archive interfaces.StorageBackend, log *slog.Logger) *Handler {
	return &Handler{
		registry: registry,
		archive:  archive,
		log:      log,
	}
}

// statusForError maps engine errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, interfaces.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, interfaces.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, interfaces.ErrTitleNotFound):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, interfaces.ErrInsufficientFee):
		return http.StatusPaymentRequired
	case errors.Is(err, interfaces.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, interfaces.ErrContentNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusForError(err))
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

// readBody reads the size-capped request body.
func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxBodySize))
}

// authenticate recovers the caller identity from the signed-request header.
func (h *Handler) authenticate(r *http.Request, body []byte) (interfaces.Identity, error) {
	header := r.Header.Get(api.SignatureHeader)
	if header == "" {
		return interfaces.Identity{}, interfaces.ErrUnauthorized
	}
	return sigverify.RecoverRequestSigner(header, body)
}

// HandleAddTitle creates a new title record.
//
// URL format: POST /api/titles
// The request must be signed by the registry administrator.
func (h *Handler) HandleAddTitle(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	caller, err := h.authenticate(r, body)
	if err != nil {
		h.log.Info("Rejected unauthenticated title creation", "err", err)
		h.writeError(w, err)
		return
	}

	var req api.AddTitleRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	titleID, err := interfaces.NewTitleID(req.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	index, err := h.registry.AddTitle(caller, titleID, req.Size, req.Location, req.Image)
	if err != nil {
		h.log.Info("Title creation failed",
			"err", err,
			slog.String("titleID", titleID.String()),
			slog.String("caller", caller.String()))
		h.writeError(w, err)
		return
	}

	metrics.TitlesCreated.Inc()
	h.writeJSON(w, api.AddTitleResponse{Index: index})
}

// HandleFetchTitle returns a snapshot of the title at the given index.
//
// URL format: GET /api/titles/{index}
func (h *Handler) HandleFetchTitle(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 64)
	if err != nil {
		http.Error(w, "invalid title index", http.StatusBadRequest)
		return
	}

	title, err := h.registry.FetchTitle(index)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, title)
}

// HandleRegisterTitle completes registration of a title. The request must be
// signed by the title owner, and the payment must cover the registration fee.
//
// URL format: POST /api/titles/{index}/register
func (h *Handler) HandleRegisterTitle(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 64)
	if err != nil {
		http.Error(w, "invalid title index", http.StatusBadRequest)
		return
	}

	body, err := readBody(r)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	caller, err := h.authenticate(r, body)
	if err != nil {
		h.log.Info("Rejected unauthenticated registration", "err", err)
		h.writeError(w, err)
		return
	}

	var req api.RegisterTitleRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	titleID, err := interfaces.NewTitleID(req.TitleID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(req.Signature, "0x"))
	if err != nil {
		http.Error(w, "invalid signature encoding", http.StatusBadRequest)
		return
	}

	payment, ok := new(big.Int).SetString(req.Payment, 10)
	if !ok || payment.Sign() < 0 {
		http.Error(w, "invalid payment amount", http.StatusBadRequest)
		return
	}

	err = h.registry.RegisterTitle(r.Context(), index, sig, titleID, caller, payment)
	if err != nil {
		h.log.Info("Registration failed",
			"err", err,
			slog.Uint64("index", index),
			slog.String("caller", caller.String()))
		h.writeError(w, err)
		return
	}

	metrics.TitlesRegistered.Inc()
	paymentFloat, _ := new(big.Float).SetInt(payment).Float64()
	metrics.FeesForwardedWei.Add(paymentFloat)

	w.WriteHeader(http.StatusOK)
}

// HandleProcessSignature recovers the signer of a canonical title message.
// Pure verification, no state change.
//
// URL format: POST /api/signatures/process
func (h *Handler) HandleProcessSignature(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	var req api.ProcessSignatureRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	owner, err := interfaces.NewIdentityFromHex(req.Owner)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	titleID, err := interfaces.NewTitleID(req.TitleID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(req.Signature, "0x"))
	if err != nil {
		http.Error(w, "invalid signature encoding", http.StatusBadRequest)
		return
	}

	signer, err := h.registry.ProcessSignature(owner, sig, titleID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, api.ProcessSignatureResponse{Signer: signer.String()})
}

// HandleEvents returns the ordered event log snapshot.
//
// URL format: GET /api/events
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	events := h.registry.Events()
	if events == nil {
		events = []interfaces.TitleEvent{}
	}
	h.writeJSON(w, api.EventsResponse{Events: events})
}

// HandleUploadDocument stores a document in the archive.
//
// URL format: POST /api/documents/{kind} where kind is "image" or "deed".
// Response: JSON with the hex content ID.
func (h *Handler) HandleUploadDocument(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		http.Error(w, "document archive not configured", http.StatusNotImplemented)
		return
	}

	contentType, err := interfaces.ParseContentType(chi.URLParam(r, "kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := readBody(r)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		http.Error(w, "empty document", http.StatusBadRequest)
		return
	}

	id, err := h.archive.Store(r.Context(), data, contentType)
	if err != nil {
		h.log.Error("Document upload failed",
			"err", err,
			slog.String("contentType", contentType.String()))
		http.Error(w, "failed to store document", http.StatusInternalServerError)
		return
	}

	metrics.DocumentsArchived.WithLabelValues(contentType.String()).Inc()
	h.writeJSON(w, api.UploadDocumentResponse{ContentID: id.String()})
}

// HandleFetchDocument retrieves an archived document by content ID.
//
// URL format: GET /api/documents/{kind}/{id}
func (h *Handler) HandleFetchDocument(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		http.Error(w, "document archive not configured", http.StatusNotImplemented)
		return
	}

	contentType, err := interfaces.ParseContentType(chi.URLParam(r, "kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := interfaces.NewContentIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := h.archive.Fetch(r.Context(), id, contentType)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(data)
}
