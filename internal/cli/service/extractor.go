package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"BizCard/internal/cli/api"
	"BizCard/internal/cli/model"
)

// ErrExtraction — распознавание не удалось; визитку можно заполнить вручную.
var ErrExtraction = errors.New("extraction failed")

// ExtractionError несёт код ответа релея и его сообщение.
type ExtractionError struct {
	Status  int
	Message string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed (%d): %s", e.Status, e.Message)
}

// Unwrap позволяет проверять errors.Is(err, ErrExtraction).
func (e *ExtractionError) Unwrap() error { return ErrExtraction }

// Extractor — клиент релея распознавания визиток.
type Extractor struct {
	baseURL string
	client  *http.Client
}

// NewExtractor создаёт клиента для релея по адресу serverURL (http(s)://host:port).
func NewExtractor(serverURL string, timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Extractor{
		baseURL: strings.TrimRight(serverURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type extractRequest struct {
	Base64Image string `json:"base64Image"`
}

// Extract отправляет картинку (data URI или голый base64) и возвращает распознанные поля.
func (e *Extractor) Extract(ctx context.Context, imagePayload string) (model.ExtractionResult, error) {
	resp, body, err := api.PostJSON(ctx, e.client, e.baseURL+"/api/extract", extractRequest{Base64Image: imagePayload})
	if err != nil {
		return model.ExtractionResult{}, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.ExtractionResult{}, &ExtractionError{Status: resp.StatusCode, Message: api.ErrorMessage(body)}
	}
	var out model.ExtractionResult
	if err := json.Unmarshal(body, &out); err != nil {
		return model.ExtractionResult{}, &ExtractionError{Status: http.StatusBadGateway, Message: "unparseable relay response"}
	}
	return out, nil
}

// ImageDataURI читает файл картинки и кодирует его в data URI.
func ImageDataURI(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mt == "" {
		mt = http.DetectContentType(b)
	}
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	if !strings.HasPrefix(mt, "image/") {
		return "", fmt.Errorf("%s is not an image (%s)", path, mt)
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(b), nil
}
