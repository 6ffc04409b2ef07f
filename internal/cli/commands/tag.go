package commands

import (
	"context"
	"fmt"
	"strings"

	"BizCard/internal/cli/service"
	"BizCard/internal/config"
)

type tagCmd struct{}

func (tagCmd) Name() string        { return "tag" }
func (tagCmd) Description() string { return "Добавить (+tag) или убрать (-tag) теги визитки" }
func (tagCmd) Usage() string       { return "tag <id> +<tag>|-<tag>..." }

func (tagCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	id, ops := args[0], args[1:]
	for _, op := range ops {
		if len(op) < 2 || (op[0] != '+' && op[0] != '-') {
			return ErrUsage
		}
	}

	return withApp(ctx, cfg, func(svc *service.CardService) error {
		c, err := svc.Get(id)
		if err != nil {
			return err
		}
		changed := false
		for _, op := range ops {
			if op[0] == '+' {
				changed = c.AddTag(op[1:]) || changed
			} else {
				changed = c.RemoveTag(op[1:]) || changed
			}
		}
		if !changed {
			fmt.Fprintln(Out, "• Теги не изменились")
			return nil
		}
		updated, err := svc.Update(ctx, c)
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "✓ Теги: %s\n", strings.Join(updated.Tags, ", "))
		return nil
	})
}

func init() { RegisterCmd(tagCmd{}) }
