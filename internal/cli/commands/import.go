package commands

import (
	"context"
	"fmt"
	"os"

	"BizCard/internal/cli/service"
	"BizCard/internal/config"
)

type importJSONCmd struct{}

func (importJSONCmd) Name() string { return "import-json" }
func (importJSONCmd) Description() string {
	return "Заменить коллекцию данными из JSON-бэкапа (конверт или старый массив)"
}
func (importJSONCmd) Usage() string { return "import-json <file> [--yes]" }

func (importJSONCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("import-json")
	yes := fs.Bool("yes", false, "не спрашивать подтверждение")
	rest, err := parseArgs(fs, args)
	if err != nil || len(rest) != 1 {
		return ErrUsage
	}
	raw, err := os.ReadFile(rest[0])
	if err != nil {
		return err
	}
	return withApp(ctx, cfg, func(svc *service.CardService) error {
		res, err := svc.ImportBundle(ctx, raw, confirmer(*yes))
		if err != nil {
			return fmt.Errorf("import %s: %w", rest[0], err)
		}
		printRestore(res)
		return nil
	})
}

func init() { RegisterCmd(importJSONCmd{}) }
