package commands

import (
	"context"
	"errors"
	"fmt"

	"BizCard/internal/cli/service"
	"BizCard/internal/config"
)

type restoreCmd struct{}

func (restoreCmd) Name() string        { return "restore" }
func (restoreCmd) Description() string { return "Восстановить коллекцию из слота бэкапа" }
func (restoreCmd) Usage() string       { return "restore [--yes]" }

func (restoreCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("restore")
	yes := fs.Bool("yes", false, "не спрашивать подтверждение")
	rest, err := parseArgs(fs, args)
	if err != nil || len(rest) != 0 {
		return ErrUsage
	}
	return withApp(ctx, cfg, func(svc *service.CardService) error {
		res, err := svc.RestoreBackup(ctx, confirmer(*yes))
		if errors.Is(err, service.ErrBackupNotFound) {
			fmt.Fprintln(Out, "• Бэкап ещё не создавался")
			return nil
		}
		if err != nil {
			return err
		}
		printRestore(res)
		return nil
	})
}

func printRestore(res service.RestoreResult) {
	if !res.Applied {
		fmt.Fprintln(Out, "• Отменено пользователем")
		return
	}
	fmt.Fprintf(Out, "✓ Восстановлено визиток: %d (формат: %s)\n", res.Cards, res.Kind)
	if res.Images > 0 {
		fmt.Fprintf(Out, "  картинок перенесено: %d\n", res.Images)
	}
}

func init() { RegisterCmd(restoreCmd{}) }
