package commands

import (
	"context"
	"fmt"
	"strings"

	"BizCard/internal/cli/service"
	"BizCard/internal/config"
)

type searchCmd struct{}

func (searchCmd) Name() string { return "search" }
func (searchCmd) Description() string {
	return "Найти визитки по имени, компании, должности, стране или тегу"
}
func (searchCmd) Usage() string { return "search <query>" }

func (searchCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	query := strings.Join(args, " ")
	return withApp(ctx, cfg, func(svc *service.CardService) error {
		found := svc.Search(query)
		if len(found) == 0 {
			fmt.Fprintf(Out, "Ничего не найдено по запросу %q\n", query)
			return nil
		}
		printList(cfg, found)
		fmt.Fprintf(Out, "Найдено: %d\n", len(found))
		return nil
	})
}

func init() { RegisterCmd(searchCmd{}) }
