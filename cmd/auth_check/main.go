package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"redminetojira/api"
	"redminetojira/config"
	"redminetojira/utils"
)

func main() {
	var opts config.Options

	cmd := &cobra.Command{
		Use:   "auth_check",
		Short: "Redmine APIの認証情報を確認する",
		Long: `Redmine認証確認ツール

このツールはRedmine APIの認証情報が正しく設定されているかを確認します。
認証が成功すれば、他のツールも正常に動作する可能性が高いです。

環境変数:
  REDMINE_URL         Redmine URL (必須)
  REDMINE_API_KEY     Redmine APIキー (必須)`,
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
		utils.LogError("Redmine認証エラー: %v", err)
		utils.LogError("認証情報を確認してください。")
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

	utils.LogInfo("Redmine APIの認証を確認しています...")
	client := api.NewRedmineClient(cfg)
	login, err := client.CheckAuth(ctx)
	if err != nil {
		if api.IsUnauthorized(err) {
			utils.LogWarn("APIキーが拒否されました。REDMINE_API_KEY とREST APIの有効化設定を確認してください。")
		}
		return err
	}

	utils.LogSuccess("Redmine認証成功！ 接続先: %s (ユーザー: %s)", cfg.RedmineURL, login)
	return nil
}
