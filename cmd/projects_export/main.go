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
		Use:   "projects_export",
		Short: "Redmineのプロジェクトを JIRA インポート用JSONに出力する",
		Long: `Redmine → JIRA プロジェクトエクスポートツール

Redmineのプロジェクトを取得し、JIRAのJSONインポート形式で projects/jira_projects.json に出力します。
JIRAのプロジェクトキーはRedmineの識別子から "-" と "_" を除き、大文字にして10文字までに切り詰めたものです。

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
		utils.LogError("プロジェクトのエクスポートに失敗しました: %v", err)
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

	utils.LogInfo("Redmine → JIRA プロジェクトエクスポートツール")

	client := api.NewRedmineClient(cfg)
	exportService := services.NewExportService(cfg, client, services.NewJSONWriter(cfg))

	_, err = exportService.ExportProjects(ctx)
	return err
}
