package commands

import (
	"context"
	"fmt"
	"time"

	"BizCard/internal/cli/service"
	"BizCard/internal/config"
)

type backupCmd struct{}

func (backupCmd) Name() string        { return "backup" }
func (backupCmd) Description() string { return "Сохранить снимок метаданных в слот бэкапа" }
func (backupCmd) Usage() string       { return "backup" }

func (backupCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return withApp(ctx, cfg, func(svc *service.CardService) error {
		ts, err := svc.CreateBackup(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "✓ Бэкап сохранён: %d визиток, %s\n",
			len(svc.List()), time.UnixMilli(ts).In(cfg.Location()).Format("2006/01/02 15:04:05"))
		return nil
	})
}

func init() { RegisterCmd(backupCmd{}) }
