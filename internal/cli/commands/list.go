package commands

import (
	"context"
	"fmt"

	"BizCard/internal/cli/service"
	"BizCard/internal/config"
)

type listCmd struct{}

func (listCmd) Name() string        { return "list" }
func (listCmd) Description() string { return "Показать все визитки (опционально с группировкой)" }
func (listCmd) Usage() string       { return "list [--group=company|title|country]" }

func (listCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("list")
	group := fs.String("group", "", "поле группировки")
	rest, err := parseArgs(fs, args)
	if err != nil || len(rest) != 0 {
		return ErrUsage
	}
	var by service.GroupBy
	if *group != "" {
		var ok bool
		if by, ok = service.ParseGroupBy(*group); !ok {
			return ErrUsage
		}
	}

	return withApp(ctx, cfg, func(svc *service.CardService) error {
		cards := svc.List()
		if len(cards) == 0 {
			fmt.Fprintln(Out, "Нет визиток")
			return nil
		}
		if by == "" {
			printList(cfg, cards)
		} else {
			for _, g := range svc.Group(by) {
				fmt.Fprintf(Out, "%s (%d)\n", g.Key, len(g.Cards))
				printList(cfg, g.Cards)
			}
		}
		fmt.Fprintf(Out, "Всего: %d\n", len(cards))
		return nil
	})
}

func init() { RegisterCmd(listCmd{}) }
