package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"BizCard/internal/cli/bootstrap"
	"BizCard/internal/cli/model"
	"BizCard/internal/cli/model/view"
	"BizCard/internal/cli/prompt"
	"BizCard/internal/cli/repo"
	"BizCard/internal/cli/service"
	"BizCard/internal/config"
)

// withApp открывает хранилища, выполняет fn и закрывает всё обратно.
// Ошибки фоновой записи картинок возвращаются вместе с ошибкой fn.
func withApp(ctx context.Context, cfg *config.Config, fn func(svc *service.CardService) error) error {
	svc, done, err := bootstrap.OpenApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	runErr := fn(svc)
	if cerr := done(); cerr != nil {
		log.Errorw("background storage work failed", "error", cerr)
		return errors.Join(runErr, fmt.Errorf("storage: %w", cerr))
	}
	return runErr
}

// confirmer выбирает способ подтверждения: --yes или вопрос в терминале.
func confirmer(yes bool) repo.Confirmer {
	if yes {
		return repo.AutoConfirm(true)
	}
	return prompt.New(In, Out)
}

// newFlagSet — FlagSet команды, молчащий при ошибках (usage печатает диспетчер).
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// parseArgs разбирает флаги в любом месте командной строки и возвращает позиционные аргументы.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var rest []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, ErrUsage
		}
		args = fs.Args()
		if len(args) == 0 {
			return rest, nil
		}
		rest = append(rest, args[0])
		args = args[1:]
	}
}

// multiFlag — повторяемый строковый флаг (--tag=a --tag=b).
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

// printCard печатает визитку целиком.
func printCard(cfg *config.Config, c model.Card) {
	v := view.FromCard(c, cfg.Location())
	fmt.Fprintf(Out, "id:        %s\n", v.ID)
	fmt.Fprintf(Out, "name:      %s\n", v.Name)
	fmt.Fprintf(Out, "title:     %s\n", v.Title)
	fmt.Fprintf(Out, "company:   %s\n", v.Company)
	fmt.Fprintf(Out, "country:   %s\n", v.Country)
	fmt.Fprintf(Out, "email:     %s\n", v.Email)
	fmt.Fprintf(Out, "phone:     %s\n", v.Phone)
	fmt.Fprintf(Out, "website:   %s\n", v.Website)
	fmt.Fprintf(Out, "address:   %s\n", v.Address)
	fmt.Fprintf(Out, "note:      %s\n", v.Note)
	fmt.Fprintf(Out, "tags:      %s\n", v.Tags)
	fmt.Fprintf(Out, "image:     %s\n", v.Image)
	fmt.Fprintf(Out, "created:   %s\n", v.CreatedAt)
}

func printList(cfg *config.Config, cards []model.Card) {
	loc := cfg.Location()
	for _, c := range cards {
		fmt.Fprintln(Out, view.FromCard(c, loc).Line())
	}
}
