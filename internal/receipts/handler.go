package receipts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventhub-fest/backend/internal/models"
	"github.com/eventhub-fest/backend/internal/registrations"
	"github.com/eventhub-fest/backend/pkg/response"
	"github.com/eventhub-fest/backend/pkg/storage"
)

// ObjectStore is the subset of *storage.S3 the handler uses.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, key, contentType string, body io.Reader, contentLength int64, publicRead bool) (string, error)
	GeneratePresignedUploadURL(ctx context.Context, bucket, key, contentType string, expires time.Duration) (string, error)
	GeneratePresignedDownloadURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
	PresignExpire() time.Duration
	ReceiptsBucket() string
	PublicObjectURL(bucket, key string) string
	KeyFromURL(raw string) (string, bool)
}

// RegistrationGetter loads a registration by id. *registrations.Service implements it.
type RegistrationGetter interface {
	Get(ctx context.Context, id int64) (*models.Registration, error)
}

// UploadResponse is returned after a receipt lands in storage.
type UploadResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// PresignRequest is the body for POST /receipts/presign.
type PresignRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"contentType"`
}

// PresignResponse lets the form PUT the file straight to the bucket.
type PresignResponse struct {
	UploadURL   string    `json:"uploadUrl"`
	URL         string    `json:"url"`
	Key         string    `json:"key"`
	ContentType string    `json:"contentType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// DownloadResponse is returned by the admin receipt endpoint.
type DownloadResponse struct {
	URL       string     `json:"url"`
	Presigned bool       `json:"presigned"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Handler serves receipt upload and retrieval.
type Handler struct {
	store  ObjectStore
	regs   RegistrationGetter
	now    func() time.Time
	logger *zap.Logger
}

// NewHandler creates a receipts handler.
func NewHandler(store ObjectStore, regs RegistrationGetter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, regs: regs, now: time.Now, logger: logger}
}

// Upload handles POST /receipts (multipart field "file").
func (h *Handler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxReceiptSize+1<<20)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required (multipart field \"file\", max 5MB)")
		return
	}
	defer file.Close()

	if header.Size > storage.MaxReceiptSize {
		response.BadRequest(c, "file too large (max 5MB)")
		return
	}
	if !storage.ValidateReceiptFileType(header.Header.Get("Content-Type"), header.Filename) {
		response.BadRequest(c, "invalid file type: allowed jpg, png, webp, pdf")
		return
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		response.BadRequest(c, "unreadable file")
		return
	}
	sniffed := strings.SplitN(http.DetectContentType(head[:n]), ";", 2)[0]
	if _, ok := storage.AllowedReceiptTypes[sniffed]; !ok {
		response.BadRequest(c, "file content is not an image or pdf")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		response.Internal(c, "failed to read file")
		return
	}

	key := storage.ReceiptKey(h.now(), header.Filename)
	url, err := h.store.Upload(c.Request.Context(), h.store.ReceiptsBucket(), key, storage.ContentTypeForFilename(header.Filename), file, header.Size, true)
	if err != nil {
		h.logger.Error("receipt upload", zap.String("key", key), zap.Error(err))
		response.Internal(c, "failed to upload receipt")
		return
	}
	h.logger.Info("receipt uploaded", zap.String("key", key), zap.Int64("size", header.Size))
	response.Created(c, UploadResponse{URL: url, Key: key})
}

// Presign handles POST /receipts/presign.
func (h *Handler) Presign(c *gin.Context) {
	var req PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !storage.ValidateReceiptFileType(req.ContentType, req.Filename) {
		response.BadRequest(c, "invalid file type: allowed jpg, png, webp, pdf")
		return
	}

	now := h.now()
	bucket := h.store.ReceiptsBucket()
	key := storage.ReceiptKey(now, req.Filename)
	contentType := storage.ContentTypeForFilename(req.Filename)
	expires := h.store.PresignExpire()
	uploadURL, err := h.store.GeneratePresignedUploadURL(c.Request.Context(), bucket, key, contentType, expires)
	if err != nil {
		h.logger.Error("receipt presign", zap.String("key", key), zap.Error(err))
		response.Internal(c, "failed to generate upload url")
		return
	}
	response.OK(c, PresignResponse{
		UploadURL:   uploadURL,
		URL:         h.store.PublicObjectURL(bucket, key),
		Key:         key,
		ContentType: contentType,
		ExpiresAt:   now.Add(expires),
	})
}

// Download handles GET /admin/registrations/:id/receipt.
func (h *Handler) Download(c *gin.Context) {
	id, ok := registrations.ParseID(c)
	if !ok {
		return
	}
	reg, err := h.regs.Get(c.Request.Context(), id)
	if errors.Is(err, registrations.ErrNotFound) {
		response.NotFound(c, "registration not found")
		return
	}
	if err != nil {
		h.logger.Error("receipt lookup", zap.Int64("id", id), zap.Error(err))
		response.Internal(c, "failed to load registration")
		return
	}

	key, ours := h.store.KeyFromURL(reg.PaymentReceiptURL)
	if !ours {
		response.OK(c, DownloadResponse{URL: reg.PaymentReceiptURL})
		return
	}
	expires := h.store.PresignExpire()
	signed, err := h.store.GeneratePresignedDownloadURL(c.Request.Context(), h.store.ReceiptsBucket(), key, expires)
	if err != nil {
		h.logger.Error("receipt presign get", zap.Int64("id", id), zap.Error(err))
		response.Internal(c, fmt.Sprintf("failed to sign receipt url for registration %d", id))
		return
	}
	at := h.now().Add(expires)
	response.OK(c, DownloadResponse{URL: signed, Presigned: true, ExpiresAt: &at})
}
