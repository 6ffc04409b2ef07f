package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"BizCard/internal/config"
	"BizCard/internal/service"

	"go.uber.org/zap"
)

// ExtractHandler — релей распознавания визиток.
type ExtractHandler struct {
	Extractor Extractor
	Logger    *zap.SugaredLogger
	Config    *config.Config
}

// NewExtractHandler создаёт хендлер распознавания
func NewExtractHandler(extractor Extractor, logger *zap.SugaredLogger, cfg *config.Config) *ExtractHandler {
	return &ExtractHandler{Extractor: extractor, Logger: logger, Config: cfg}
}

// ExtractRequest — тело POST /api/extract.
type ExtractRequest struct {
	Base64Image string `json:"base64Image"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// maxImageBytes — предел декодированной картинки.
func (h *ExtractHandler) maxImageBytes() int64 {
	mb := h.Config.MaxImageMB
	if mb <= 0 {
		mb = 10
	}
	return int64(mb) << 20
}

// Extract принимает одну картинку и возвращает распознанные поля.
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	if !h.Extractor.Configured() {
		writeError(w, http.StatusInternalServerError, service.ErrNotConfigured.Error())
		return
	}

	// base64 раздувает данные на треть, плюс запас на JSON-обёртку
	maxImage := h.maxImageBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxImage/3*4+64*1024)

	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			h.Logger.Warnw("Extract: request too large", "limit", mbe.Limit)
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("image exceeds %d MB", h.Config.MaxImageMB))
			return
		}
		h.Logger.Warnw("Extract: invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Base64Image) == "" {
		writeError(w, http.StatusBadRequest, "base64Image is required.")
		return
	}
	if decodedLen(req.Base64Image) > maxImage {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("image exceeds %d MB", h.Config.MaxImageMB))
		return
	}

	res, err := h.Extractor.Extract(r.Context(), req.Base64Image)
	if err != nil {
		status := statusFor(err)
		h.Logger.Errorw("Extract: model call failed", "status", status, "error", err)
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Health — простая проверка доступности релея.
func (h *ExtractHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if !h.Extractor.Configured() {
		status = "no-api-key"
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: status, Model: h.Extractor.Model()})
}

// statusFor отображает класс ошибки распознавания в HTTP-статус.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrEmptyResponse):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrUnparseable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodedLen оценивает размер картинки после декодирования base64 (data URI допускается).
func decodedLen(s string) int64 {
	if i := strings.Index(s, ","); strings.HasPrefix(s, "data:") && i >= 0 {
		s = s[i+1:]
	}
	return int64(base64.StdEncoding.DecodedLen(len(s)))
}
