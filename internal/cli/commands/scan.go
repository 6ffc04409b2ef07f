package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"BizCard/internal/cli/model"
	"BizCard/internal/cli/service"
	"BizCard/internal/config"

	"github.com/google/uuid"
)

// extractTimeout — ожидание ответа релея распознавания.
var extractTimeout = 90 * time.Second

type scanCmd struct{}

func (scanCmd) Name() string { return "scan" }
func (scanCmd) Description() string {
	return "Распознать визитку по фото через релей и сохранить (поля можно дополнить вручную)"
}
func (scanCmd) Usage() string { return "scan <image> [--tag=<t>]... [<field>=<value>...]" }

func (scanCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("scan")
	var tags multiFlag
	fs.Var(&tags, "tag", "тег (можно повторять)")
	rest, err := parseArgs(fs, args)
	if err != nil || len(rest) < 1 {
		return ErrUsage
	}
	assign, err := model.ParseAssignments(rest[1:])
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrUsage)
	}
	uri, err := service.ImageDataURI(rest[0])
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	c := model.Card{
		ID:        uuid.NewString(),
		Tags:      model.NormalizeTags(tags),
		ImageURI:  &uri,
		CreatedAt: time.Now().UnixMilli(),
	}

	fmt.Fprintln(Out, "→ Распознавание визитки...")
	ex := service.NewExtractor(cfg.ServerURL, extractTimeout)
	res, err := ex.Extract(ctx, uri)
	switch {
	case err == nil:
		res.ApplyTo(&c)
		fmt.Fprintln(Out, "✓ Поля распознаны")
		if res.Rotation%360 != 0 {
			rotated, rerr := service.RotateDataURI(uri, res.Rotation)
			if rerr != nil {
				// не фатально: сохраняем как есть
				log.Warnw("image rotation failed", "rotation", res.Rotation, "error", rerr)
				fmt.Fprintf(Out, "× Не удалось повернуть изображение на %d°: %v\n", res.Rotation, rerr)
			} else {
				c.ImageURI = &rotated
				fmt.Fprintf(Out, "• Изображение повёрнуто на %d°\n", res.Rotation)
			}
		}
	case errors.Is(err, service.ErrExtraction):
		// не фатально: визитку можно заполнить вручную
		log.Warnw("extraction failed", "error", err)
		fmt.Fprintf(Out, "× Не удалось распознать: %v\n", err)
		fmt.Fprintln(Out, "• Визитка будет сохранена с введёнными вручную полями")
	default:
		return err
	}

	for f, v := range assign {
		if err := c.SetField(f, v); err != nil {
			return err
		}
	}
	c.Name = strings.TrimSpace(c.Name)

	return withApp(ctx, cfg, func(svc *service.CardService) error {
		added, err := svc.Add(ctx, c)
		if err != nil {
			return err
		}
		fmt.Fprintln(Out, "Created:")
		printCard(cfg, added)
		return nil
	})
}

func init() { RegisterCmd(scanCmd{}) }
