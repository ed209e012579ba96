package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/cardbinder/cardbinder/internal/api/response"
	"github.com/cardbinder/cardbinder/internal/storage/models"
	"github.com/cardbinder/cardbinder/internal/vision"
)

// maxScanSize caps uploaded card photos at 10 MB.
const maxScanSize = 10 << 20

// ScanProcessor runs the photo identification pipeline.
type ScanProcessor interface {
	ProcessImage(ctx context.Context, image []byte) (*models.CardRecord, error)
}

// ScanHandler handles card photo uploads.
type ScanHandler struct {
	processor ScanProcessor
}

// NewScanHandler creates a new ScanHandler.
func NewScanHandler(processor ScanProcessor) *ScanHandler {
	return &ScanHandler{processor: processor}
}

// Scan identifies the uploaded photo and adds the resolved card to the
// collection. The request body is the raw image.
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	if h.processor == nil {
		response.ServiceUnavailable(w, errors.New("scanning is not configured"))
		return
	}

	image, err := io.ReadAll(io.LimitReader(r.Body, maxScanSize+1))
	if err != nil {
		response.BadRequest(w, err)
		return
	}
	if len(image) == 0 {
		response.BadRequest(w, errors.New("request body must contain an image"))
		return
	}
	if len(image) > maxScanSize {
		response.BadRequest(w, errors.New("image exceeds maximum size"))
		return
	}

	card, err := h.processor.ProcessImage(r.Context(), image)
	if err != nil {
		if errors.Is(err, vision.ErrNoCard) {
			response.UnprocessableEntity(w, err)
			return
		}
		response.ServiceUnavailable(w, err)
		return
	}

	response.Created(w, card)
}
