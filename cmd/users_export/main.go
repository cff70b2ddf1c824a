package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"redminetojira/api"
	"redminetojira/config"
	"redminetojira/services"
	"redminetojira/utils"
)

func main() {
	var opts config.Options

	cmd := &cobra.Command{
		Use:   "users_export",
		Short: "Redmineのユーザーを JIRA インポート用JSONに出力する",
		Long: `Redmine → JIRA ユーザーエクスポートツール

Redmineのユーザーを取得し、JIRAのJSONインポート形式で users/jira_users.json に出力します。
REDMINE_PARSE_ONLY_ACTIVE_USERS が false の場合は、ロック中のユーザーも active=false として出力します。

` + config.EnvHelp,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(cmd.Context(), opts)
		},
	}
	config.BindFlags(cmd.Flags(), &opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		utils.LogError("ユーザーのエクスポートに失敗しました: %v", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts config.Options) error {
	cfg, err := config.Load(opts)
	if err != nil {
		return err
	}
	level, err := utils.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	utils.SetLogLevel(level)

	utils.LogInfo("Redmine → JIRA ユーザーエクスポートツール")

	client := api.NewRedmineClient(cfg)
	exportService := services.NewExportService(cfg, client, services.NewJSONWriter(cfg))

	_, err = exportService.ExportUsers(ctx)
	return err
}
