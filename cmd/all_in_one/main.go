package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

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

	// 開始時間の記録
	startTime := time.Now()

	if err := cmd.ExecuteContext(ctx); err != nil {
		utils.LogError("エクスポート処理に失敗しました: %v", err)
		stop()
		os.Exit(1)
	}

	utils.LogInfo("合計実行時間: %s", time.Since(startTime).Round(time.Millisecond))
}

// newCommand はコマンドを作成します
func newCommand() *cobra.Command {
	var opts config.Options

	cmd := &cobra.Command{
		Use:   "all_in_one [<redmine-project-id> <jira-project-key>]...",
		Short: "プロジェクト・ユーザー・イシューをまとめてエクスポートする",
		Long: `Redmine → JIRA エクスポートツール (v1.0.0)

プロジェクトとユーザーを出力した後、引数で指定した
RedmineプロジェクトIDとJIRAプロジェクトキーの組ごとにイシューを出力します。

` + config.EnvHelp,
		Example: `  # プロジェクトとユーザーのみ
  all_in_one

  # 2つのプロジェクトのイシューも出力
  all_in_one web-site WEB backend BACK`,
		Args:          requireTargetPairs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(cmd.Context(), opts, args)
		},
	}
	config.BindFlags(cmd.Flags(), &opts)
	return cmd
}

func requireTargetPairs(cmd *cobra.Command, args []string) error {
	if len(args)%2 != 0 {
		return errors.New("RedmineプロジェクトIDとJIRAプロジェクトキーは組で指定してください")
	}
	for _, arg := range args {
		if arg == "" {
			return errors.New("空の引数は指定できません")
		}
	}
	return nil
}

func run(ctx context.Context, opts config.Options, args []string) error {
	cfg, err := config.Load(opts)
	if err != nil {
		return err
	}
	level, err := utils.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	utils.SetLogLevel(level)

	utils.LogInfo("Redmine → JIRA エクスポートツール (v1.0.0)")

	targets := make([]services.IssueTarget, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		targets = append(targets, services.IssueTarget{
			RedmineProject: args[i],
			JiraProjectKey: args[i+1],
		})
	}

	// 必要なサービスの初期化
	client := api.NewRedmineClient(cfg)
	exportService := services.NewExportService(cfg, client, services.NewJSONWriter(cfg))

	return exportService.RunAll(ctx, targets)
}
