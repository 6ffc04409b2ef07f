package commands

import (
	"context"
	"fmt"

	"BizCard/internal/cli/service"
	"BizCard/internal/config"
)

type deleteCmd struct{}

func (deleteCmd) Name() string        { return "delete" }
func (deleteCmd) Description() string { return "Удалить визитку вместе с картинкой" }
func (deleteCmd) Usage() string       { return "delete <id> [--yes]" }

func (deleteCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("delete")
	yes := fs.Bool("yes", false, "не спрашивать подтверждение")
	rest, err := parseArgs(fs, args)
	if err != nil || len(rest) != 1 {
		return ErrUsage
	}
	return withApp(ctx, cfg, func(svc *service.CardService) error {
		deleted, err := svc.Delete(ctx, rest[0], confirmer(*yes))
		if err != nil {
			return err
		}
		if !deleted {
			fmt.Fprintln(Out, "• Отменено пользователем")
			return nil
		}
		fmt.Fprintf(Out, "✓ Удалено: %s\n", rest[0])
		return nil
	})
}

func init() { RegisterCmd(deleteCmd{}) }
