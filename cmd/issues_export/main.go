package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"redminetojira/api"
	"redminetojira/config"
	"redminetojira/services"
	"redminetojira/utils"
)

func main() {
	cmd := newCommand()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		utils.LogError("イシューのエクスポートに失敗しました: %v", err)
		stop()
		os.Exit(1)
	}
}

// newCommand はコマンドを作成します
func newCommand() *cobra.Command {
	var opts config.Options

	cmd := &cobra.Command{
		Use:   "issues_export <redmine-project-id> <jira-project-key>",
		Short: "Redmineのイシューを JIRA インポート用JSONに出力する",
		Long: `Redmine → JIRA イシューエクスポートツール

指定したRedmineプロジェクトのイシュー・コメント・作業時間を取得し、
JIRAのJSONインポート形式で issues/jira_issues_<redmine-project-id>.json に出力します。

REDMINE_PARSE_WORKLOG を使う場合は JIRA_USE_REDMINE_USERS も true にしてください。

` + config.EnvHelp,
		Example: `  issues_export my-project MYPROJ
  issues_export my-project MYPROJ --output-dir ./export --log-level debug`,
		Args:          requireProjectArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(cmd.Context(), opts, args[0], args[1])
		},
	}
	config.BindFlags(cmd.Flags(), &opts)
	return cmd
}

// RedmineプロジェクトIDとJIRAプロジェクトキーの両方が必須
func requireProjectArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 2 || args[0] == "" || args[1] == "" {
		return errors.New("RedmineプロジェクトIDとJIRAプロジェクトキーを指定してください")
	}
	return nil
}

func run(ctx context.Context, opts config.Options, projectID, jiraProjectKey string) error {
	cfg, err := config.Load(opts)
	if err != nil {
		return err
	}
	level, err := utils.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	utils.SetLogLevel(level)

	utils.LogInfo("Redmine → JIRA イシューエクスポートツール")
	utils.LogDebug("接続先: %s", cfg.RedmineURL)

	client := api.NewRedmineClient(cfg)
	writer := services.NewJSONWriter(cfg)
	exportService := services.NewExportService(cfg, client, writer)

	_, err = exportService.ExportIssues(ctx, projectID, jiraProjectKey)
	return err
}
