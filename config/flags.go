package config

import "github.com/spf13/pflag"

// BindFlags は全ツール共通のフラグを登録します
func BindFlags(fs *pflag.FlagSet, opts *Options) {
	fs.StringVar(&opts.EnvFile, "env-file", "", "読み込む.envファイル（デフォルト: .env）")
	fs.StringVar(&opts.ConfigFile, "config", "", "YAML設定ファイル（環境変数 CONFIG_FILE でも指定可）")
	fs.StringVarP(&opts.OutputDir, "output-dir", "o", "", "出力先ディレクトリ（環境変数 OUTPUT_DIR を上書き）")
	fs.StringVarP(&opts.LogLevel, "log-level", "l", "", "ログレベル (debug, info, warn, error)")
}

// EnvHelp は各ツールのヘルプに表示する環境変数の説明です
const EnvHelp = `環境変数:
  REDMINE_URL                       Redmine URL (必須)
  REDMINE_API_KEY                   Redmine APIキー (必須)
  REDMINE_PARSE_ONLY_ACTIVE_USERS   有効なユーザーのみ出力する (デフォルト: false)
  REDMINE_PARSE_ONLY_ACTIVE_TASKS   未完了のイシューのみ出力する (デフォルト: false)
  REDMINE_PARSE_WORKLOG             作業時間をワークログとして出力する (デフォルト: false)
  REDMINE_PAGE_SIZE                 1リクエストあたりの取得件数 (1〜100, デフォルト: 25)
  REDMINE_TIMEOUT                   HTTPタイムアウト (例: 30s, デフォルト: なし)
  JIRA_USE_REDMINE_STATUSES         Redmineのステータス名をそのまま使う (デフォルト: false)
  JIRA_USE_REDMINE_USERS            Redmineのユーザーを報告者・担当者に使う (デフォルト: false)
  JIRA_DEFAULT_AUTHOR               デフォルトの報告者
  JIRA_DEFAULT_STATUS               デフォルトのステータス (デフォルト: To Do)
  JIRA_DEFAULT_TYPE                 デフォルトのイシュータイプ (デフォルト: Task)
  JIRA_DEFAULT_PRIORITY             デフォルトの優先度 (デフォルト: Medium)
  JIRA_DEFAULT_PROJECT_TYPE         プロジェクトタイプ (デフォルト: software)
  JIRA_DEFAULT_NOTIFICATION_SCHEME  通知スキームID
  JIRA_DEFAULT_PERMISSION_SCHEME    権限スキームID
  JIRA_DEFAULT_WORKFLOW_SCHEME      ワークフロースキームID
  JIRA_DEFAULT_LEAD                 プロジェクトリーダー
  JIRA_DEFAULT_USER_GROUP           ユーザーの所属グループ (デフォルト: jira-software-users)
  OUTPUT_DIR                        出力先ディレクトリ (デフォルト: .)
  LOG_LEVEL                         ログレベル (デフォルト: info)`
