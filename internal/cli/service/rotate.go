package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // декодер webp для image.Decode
)

// rotatedJPEGQuality — качество JPEG после поворота.
const rotatedJPEGQuality = 90

// RotateDataURI поворачивает картинку из data URI на degrees по часовой стрелке.
// Холст расширяется под повёрнутое изображение, углы заливаются белым.
// Результат всегда JPEG. Угол, кратный 360, возвращает исходную строку.
func RotateDataURI(uri string, degrees int) (string, error) {
	if degrees%360 == 0 {
		return uri, nil
	}
	comma := strings.IndexByte(uri, ',')
	if !strings.HasPrefix(uri, "data:") || comma < 0 || !strings.HasSuffix(uri[:comma], ";base64") {
		return "", fmt.Errorf("rotate: not a base64 data URI")
	}
	raw, err := base64.StdEncoding.DecodeString(uri[comma+1:])
	if err != nil {
		return "", fmt.Errorf("rotate: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("rotate: decode: %w", err)
	}
	// imaging вращает против часовой
	rotated := imaging.Rotate(img, -float64(degrees), color.White)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, rotated, imaging.JPEG, imaging.JPEGQuality(rotatedJPEGQuality)); err != nil {
		return "", fmt.Errorf("rotate: encode: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
