package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"BizCard/internal/config"
	"BizCard/internal/model"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Классы ошибок распознавания. Хендлер отображает их в HTTP-статусы.
var (
	ErrNotConfigured = errors.New("GEMINI_API_KEY is not configured on the server")
	ErrEmptyResponse = errors.New("empty response from the model")
	ErrUnparseable   = errors.New("could not parse the model response")
	ErrInvalidImage  = errors.New("base64Image is not valid base64")
)

// UpstreamError — модель ответила ошибкой (ключ, квота, транспорт).
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("model API error (%d): %s", e.Status, e.Message)
}

// GeminiExtractor вызывает generateContent через genai и разбирает ответ в model.Extraction.
type GeminiExtractor struct {
	client *genai.Client // nil, если ключ не задан
	model  string
	logger *zap.SugaredLogger
}

// NewGeminiExtractor создаёт клиента по конфигу. httpClient == nil — клиент с таймаутом по умолчанию.
// Без ключа клиент не создаётся, Extract тогда возвращает ErrNotConfigured.
func NewGeminiExtractor(ctx context.Context, cfg *config.Config, httpClient *http.Client, logger *zap.SugaredLogger) (*GeminiExtractor, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	g := &GeminiExtractor{model: cfg.GeminiModel, logger: logger}
	if cfg.GeminiAPIKey == "" {
		return g, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.GeminiAPIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    cfg.GeminiEndpoint,
			APIVersion: cfg.GeminiAPIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	g.client = client
	return g, nil
}

// Configured сообщает, задан ли ключ API.
func (g *GeminiExtractor) Configured() bool { return g.client != nil }

// Model — имя используемой модели.
func (g *GeminiExtractor) Model() string { return g.model }

var dataURIRe = regexp.MustCompile(`^data:(image/(?:png|jpeg|jpg|webp));base64,`)

// splitDataURI отделяет MIME-тип от base64. Голый base64 считается JPEG.
func splitDataURI(s string) (mimeType, data string) {
	if m := dataURIRe.FindStringSubmatch(s); m != nil {
		mimeType = m[1]
		if mimeType == "image/jpg" {
			mimeType = "image/jpeg"
		}
		return mimeType, s[len(m[0]):]
	}
	return "image/jpeg", s
}

const extractPrompt = `Analyze this business card image and extract the following information.
この名刺画像を解析し、情報を抽出してください。
วิเคราะห์นามบัตรนี้และดึงข้อมูลต่อไปนี้

[Rules / 解析要件 / กฎ]
1. The card may be in Japanese, English, Thai, Chinese, or any other language. Extract text AS-IS, do NOT translate.
   名刺は日本語・英語・タイ語・中国語など多言語に対応。翻訳せず原文のまま抽出してください。
2. THAI cards: names appear in Thai script and/or romanized English; extract both if present (Thai script first).
   Phone: 0X-XXXX-XXXX or +66-X-XXXX-XXXX. Country = "Thailand". Domain .th means Thailand.
3. ENGLISH cards: names follow "First Last", "Last, First", or include honorifics (Mr./Ms./Dr.).
   Extract the full name as printed without abbreviation.
4. JAPANESE cards: names may be in kanji/hiragana/katakana with furigana above; extract the main name.
   Phone: 0X-XXXX-XXXX or +81-X-XXXX-XXXX. Domain .co.jp / .jp means Japan.
5. Detect COUNTRY from the phone prefix (+66 Thailand, +81 Japan, +1 USA/Canada, +86 China, +44 UK),
   the domain (.th, .co.th Thailand; .co.jp, .jp Japan; .cn China; .au Australia) or the script of the card text.
6. If the image is rotated or tilted, estimate the CLOCKWISE rotation angle needed to make text upright
   (e.g. 0, 90, 180, 270, or fine adjustments like 5, -5).
7. Put handwritten notes or uncategorized details into "note".
8. Return empty string "" for any field not found on the card.`

func stringProp(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"name":     stringProp("Full Name (氏名)"),
		"title":    stringProp("Job Title (役職)"),
		"company":  stringProp("Company Name (会社名)"),
		"country":  stringProp("Country detected from address/phone (国)"),
		"email":    stringProp("Email Address"),
		"phone":    stringProp("Phone Number"),
		"website":  stringProp("Website URL"),
		"address":  stringProp("Address (住所)"),
		"note":     stringProp("Handwritten notes or extra information (手書きメモや備考)"),
		"rotation": {Type: genai.TypeInteger, Description: "Rotation angle in degrees to make text upright. 0 if upright."},
	},
	Required: []string{"name", "company"},
}

// rawExtraction — rotation может прийти дробным.
type rawExtraction struct {
	model.Extraction
	Rotation float64 `json:"rotation"`
}

// Extract отправляет картинку модели и возвращает распознанные поля.
func (g *GeminiExtractor) Extract(ctx context.Context, base64Image string) (model.Extraction, error) {
	if !g.Configured() {
		return model.Extraction{}, ErrNotConfigured
	}
	mimeType, data := splitDataURI(base64Image)
	img, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return model.Extraction{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(img, mimeType),
		genai.NewPartFromText(extractPrompt),
	}, genai.RoleUser)}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema,
	})
	g.logger.Debugw("model call finished",
		"model", g.model,
		"duration", time.Since(start),
		"error", err,
	)
	if err != nil {
		return model.Extraction{}, classifyCallError(err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return model.Extraction{}, ErrEmptyResponse
	}
	var out rawExtraction
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		g.logger.Warnw("model returned invalid JSON", "text", text, "error", err)
		return model.Extraction{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	res := out.Extraction
	res.Rotation = int(math.Round(out.Rotation))
	return res, nil
}

// classifyCallError: ответ API с ошибкой и сбой транспорта — UpstreamError,
// всё остальное значит, что ответ не удалось разобрать.
func classifyCallError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{Status: apiErr.Code, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &UpstreamError{Status: apiErrPtr.Code, Message: apiErrPtr.Message}
	}
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &UpstreamError{Message: err.Error()}
	}
	return fmt.Errorf("%w: %v", ErrUnparseable, err)
}
