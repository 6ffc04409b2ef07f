package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"BizCard/internal/cli/model"
	"BizCard/internal/cli/service"
	"BizCard/internal/config"
)

type exportCSVCmd struct{}

func (exportCSVCmd) Name() string        { return "export-csv" }
func (exportCSVCmd) Description() string { return "Выгрузить визитки в CSV (UTF-8 с BOM)" }
func (exportCSVCmd) Usage() string       { return "export-csv [--out=<dir>]" }

func (exportCSVCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("export-csv")
	out := fs.String("out", ".", "каталог для файла")
	rest, err := parseArgs(fs, args)
	if err != nil || len(rest) != 0 {
		return ErrUsage
	}
	return withApp(ctx, cfg, func(svc *service.CardService) error {
		cards := svc.List()
		if len(cards) == 0 {
			fmt.Fprintln(Out, "• Нет визиток для выгрузки")
			return nil
		}
		path := filepath.Join(*out, service.CSVFileName(time.Now()))
		err := writeFile(path, func(w *bufio.Writer) error {
			return service.ExportCSV(w, cards, cfg.Location())
		})
		if errors.Is(err, model.ErrNothingToExport) {
			fmt.Fprintln(Out, "• Нет визиток для выгрузки")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(Out, "✓ CSV: %s (%d визиток)\n", path, len(cards))
		return nil
	})
}

type exportJSONCmd struct{}

func (exportJSONCmd) Name() string { return "export-json" }
func (exportJSONCmd) Description() string {
	return "Выгрузить полный бэкап (метаданные и картинки) в JSON"
}
func (exportJSONCmd) Usage() string { return "export-json [--out=<file>]" }

func (exportJSONCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("export-json")
	out := fs.String("out", "", "путь к файлу")
	rest, err := parseArgs(fs, args)
	if err != nil || len(rest) != 0 {
		return ErrUsage
	}
	return withApp(ctx, cfg, func(svc *service.CardService) error {
		b, err := svc.ExportBundle(ctx)
		if err != nil {
			return err
		}
		path := *out
		if path == "" {
			path = service.BundleFileName(time.Now())
		}
		if err := writeFile(path, func(w *bufio.Writer) error { return service.WriteBundle(w, b) }); err != nil {
			return err
		}
		fmt.Fprintf(Out, "✓ JSON: %s (%d визиток)\n", path, len(b.Cards))
		return nil
	})
}

// writeFile пишет файл целиком; при ошибке частично записанный файл удаляется.
func writeFile(path string, fn func(w *bufio.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		return err
	}
	return w.Flush()
}

func init() {
	RegisterCmd(exportCSVCmd{})
	RegisterCmd(exportJSONCmd{})
}
