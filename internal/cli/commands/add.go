package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"BizCard/internal/cli/model"
	"BizCard/internal/cli/service"
	"BizCard/internal/config"

	"github.com/google/uuid"
)

type addCmd struct{}

func (addCmd) Name() string        { return "add" }
func (addCmd) Description() string { return "Добавить визитку вручную" }
func (addCmd) Usage() string {
	return "add --name=<name> [--company=..] [--title=..] [--email=..] ... [--image=<path>] [--tag=<t>]..."
}

func (addCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("add")
	values := make(map[string]*string, len(model.EditableFields))
	for _, f := range model.EditableFields {
		values[f] = fs.String(f, "", f)
	}
	image := fs.String("image", "", "путь к картинке визитки")
	var tags multiFlag
	fs.Var(&tags, "tag", "тег (можно повторять)")

	rest, err := parseArgs(fs, args)
	if err != nil || len(rest) != 0 {
		return ErrUsage
	}

	c := model.Card{
		ID:        uuid.NewString(),
		Tags:      model.NormalizeTags(tags),
		CreatedAt: time.Now().UnixMilli(),
	}
	for f, v := range values {
		if err := c.SetField(f, strings.TrimSpace(*v)); err != nil {
			return err
		}
	}
	if c.Name == "" && c.Company == "" {
		return ErrUsage
	}
	if *image != "" {
		uri, err := service.ImageDataURI(*image)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		c.ImageURI = &uri
	}

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

func init() { RegisterCmd(addCmd{}) }
