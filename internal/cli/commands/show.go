package commands

import (
	"context"

	"BizCard/internal/cli/service"
	"BizCard/internal/config"
)

type showCmd struct{}

func (showCmd) Name() string        { return "show" }
func (showCmd) Description() string { return "Показать визитку по id" }
func (showCmd) Usage() string       { return "show <id>" }

func (showCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	return withApp(ctx, cfg, func(svc *service.CardService) error {
		c, err := svc.Get(args[0])
		if err != nil {
			return err
		}
		printCard(cfg, c)
		return nil
	})
}

func init() { RegisterCmd(showCmd{}) }
