package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"BizCard/internal/cli/api"
	"BizCard/internal/cli/service"
	"BizCard/internal/config"
)

// statusTimeout — сколько ждать ответа релея в status.
var statusTimeout = 5 * time.Second

type healthResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
}

type statusCmd struct{}

func (statusCmd) Name() string        { return "status" }
func (statusCmd) Description() string { return "Состояние локального хранилища, бэкапа и релея" }
func (statusCmd) Usage() string       { return "status" }

func (statusCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	err := withApp(ctx, cfg, func(svc *service.CardService) error {
		fmt.Fprintf(Out, "Data dir:  %s\n", cfg.DataDir)
		fmt.Fprintf(Out, "Storage:   metadata=%s images=%s\n", cfg.MetadataBackend, cfg.ImageBackend)
		cards := svc.List()
		withImages := 0
		for _, c := range cards {
			if c.HasImage() {
				withImages++
			}
		}
		fmt.Fprintf(Out, "Cards:     %d (with image: %d)\n", len(cards), withImages)
		ts, ok, err := svc.LastBackupAt(ctx)
		switch {
		case err != nil:
			fmt.Fprintf(Out, "Backup:    unknown (%v)\n", err)
		case !ok:
			fmt.Fprintln(Out, "Backup:    never")
		default:
			fmt.Fprintf(Out, "Backup:    %s\n", time.UnixMilli(ts).In(cfg.Location()).Format("2006/01/02 15:04:05"))
		}
		return nil
	})
	if err != nil {
		return err
	}

	// релей необязателен для локальной работы: ошибка только печатается
	fmt.Fprintf(Out, "Relay:     %s\n", relayStatus(ctx, cfg.ServerURL))
	return nil
}

func relayStatus(ctx context.Context, serverURL string) string {
	endpoint := strings.TrimRight(serverURL, "/") + "/api/health"
	client := &http.Client{Timeout: statusTimeout}
	resp, body, err := api.GetJSON(ctx, client, endpoint)
	if err != nil {
		return fmt.Sprintf("unreachable (%v)", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("status %d: %s", resp.StatusCode, api.ErrorMessage(body))
	}
	var hr healthResponse
	if err := json.Unmarshal(body, &hr); err != nil {
		return "bad response"
	}
	if hr.Model != "" {
		return fmt.Sprintf("%s (model %s)", hr.Status, hr.Model)
	}
	return hr.Status
}

func init() { RegisterCmd(statusCmd{}) }
