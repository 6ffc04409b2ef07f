package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BundleVersion — текущая версия полного бэкапа.
const BundleVersion = 2

// Bundle — полный бэкап: метаданные и картинки (imageUri заполнен).
type Bundle struct {
	Version    int    `json:"version"`
	ExportedAt int64  `json:"exportedAt"`
	Cards      []Card `json:"cards"`
}

// RestoreKind различает форматы входных данных восстановления.
type RestoreKind int

const (
	// RestoreLegacy — голый массив визиток (старый формат).
	RestoreLegacy RestoreKind = iota + 1
	// RestoreEnvelope — версионированный конверт Bundle.
	RestoreEnvelope
)

func (k RestoreKind) String() string {
	switch k {
	case RestoreLegacy:
		return "legacy"
	case RestoreEnvelope:
		return "envelope"
	default:
		return "unknown"
	}
}

// RestoreData — разобранные данные восстановления одного из двух форматов.
// Version и ExportedAt заполнены только для RestoreEnvelope.
type RestoreData struct {
	Kind       RestoreKind
	Version    int
	ExportedAt int64
	Cards      []Card
}

// envelopeProbe нужен, чтобы отличить отсутствующее поле от пустого.
type envelopeProbe struct {
	Version    *int             `json:"version"`
	ExportedAt int64            `json:"exportedAt"`
	Cards      *json.RawMessage `json:"cards"`
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseRestoreData разбирает бэкап. Формат определяется по первому значимому символу:
// '[' — legacy массив, '{' — конверт с полями version и cards.
// Любая ошибка возвращается целиком, частичного результата нет.
func ParseRestoreData(raw []byte) (RestoreData, error) {
	body := bytes.TrimSpace(bytes.TrimPrefix(raw, utf8BOM))
	if len(body) == 0 {
		return RestoreData{}, fmt.Errorf("%w: empty input", ErrInvalidFormat)
	}

	var out RestoreData
	switch body[0] {
	case '[':
		var cards []Card
		if err := json.Unmarshal(body, &cards); err != nil {
			return RestoreData{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		out = RestoreData{Kind: RestoreLegacy, Cards: cards}
	case '{':
		var probe envelopeProbe
		if err := json.Unmarshal(body, &probe); err != nil {
			return RestoreData{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		if probe.Version == nil || probe.Cards == nil {
			return RestoreData{}, fmt.Errorf("%w: envelope requires version and cards", ErrInvalidFormat)
		}
		if *probe.Version < 1 {
			return RestoreData{}, fmt.Errorf("%w: version %d", ErrInvalidFormat, *probe.Version)
		}
		if *probe.Version > BundleVersion {
			return RestoreData{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, *probe.Version)
		}
		var cards []Card
		if err := json.Unmarshal(*probe.Cards, &cards); err != nil {
			return RestoreData{}, fmt.Errorf("%w: cards: %v", ErrInvalidFormat, err)
		}
		out = RestoreData{Kind: RestoreEnvelope, Version: *probe.Version, ExportedAt: probe.ExportedAt, Cards: cards}
	default:
		return RestoreData{}, fmt.Errorf("%w: expected JSON array or object", ErrInvalidFormat)
	}

	seen := make(map[string]struct{}, len(out.Cards))
	for i := range out.Cards {
		c := &out.Cards[i]
		if c.ID == "" {
			return RestoreData{}, fmt.Errorf("%w: card #%d has no id", ErrInvalidFormat, i)
		}
		if _, dup := seen[c.ID]; dup {
			return RestoreData{}, fmt.Errorf("%w: duplicate id %q", ErrInvalidFormat, c.ID)
		}
		seen[c.ID] = struct{}{}
		c.Normalize()
	}
	if out.Cards == nil {
		out.Cards = []Card{}
	}
	return out, nil
}
