package commands

import (
	"context"
	"fmt"

	"BizCard/internal/cli/model"
	"BizCard/internal/cli/service"
	"BizCard/internal/config"
)

type editCmd struct{}

func (editCmd) Name() string { return "edit" }
func (editCmd) Description() string {
	return "Изменить поля визитки: name|title|company|country|email|phone|website|address|note|tags"
}
func (editCmd) Usage() string {
	return "edit <id> [--image=<path>|--no-image] <field>=<value>..."
}

func (editCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("edit")
	image := fs.String("image", "", "заменить картинку")
	noImage := fs.Bool("no-image", false, "убрать картинку")
	rest, err := parseArgs(fs, args)
	if err != nil || len(rest) < 1 {
		return ErrUsage
	}
	if *image != "" && *noImage {
		return ErrUsage
	}
	id := rest[0]
	assign, err := model.ParseAssignments(rest[1:])
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrUsage)
	}
	if len(assign) == 0 && *image == "" && !*noImage {
		return ErrUsage
	}
	var uri string
	if *image != "" {
		if uri, err = service.ImageDataURI(*image); err != nil {
			return fmt.Errorf("read image: %w", err)
		}
	}

	return withApp(ctx, cfg, func(svc *service.CardService) error {
		c, err := svc.Get(id)
		if err != nil {
			return err
		}
		for f, v := range assign {
			if err := c.SetField(f, v); err != nil {
				return err
			}
		}
		switch {
		case uri != "":
			c.ImageURI = &uri
		case *noImage:
			c.ImageURI = nil
		}
		updated, err := svc.Update(ctx, c)
		if err != nil {
			return err
		}
		fmt.Fprintln(Out, "Updated:")
		printCard(cfg, updated)
		return nil
	})
}

func init() { RegisterCmd(editCmd{}) }
