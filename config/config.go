package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"redminetojira/utils"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// Redmine API設定
	RedmineURL      string        `yaml:"redmine_url"`
	RedmineAPIKey   string        `yaml:"redmine_api_key"`
	OnlyActiveUsers bool          `yaml:"only_active_users"`
	OnlyActiveTasks bool          `yaml:"only_active_tasks"`
	ParseWorklog    bool          `yaml:"parse_worklog"`
	PageSize        int           `yaml:"page_size"`
	Timeout         time.Duration `yaml:"timeout"`

	// JIRA変換設定
	UseRedmineStatuses bool   `yaml:"use_redmine_statuses"`
	UseRedmineUsers    bool   `yaml:"use_redmine_users"`
	DefaultAuthor      string `yaml:"default_author"`
	DefaultStatus      string `yaml:"default_status"`
	DefaultType        string `yaml:"default_type"`
	DefaultPriority    string `yaml:"default_priority"`

	// JIRAプロジェクト・ユーザーのデフォルト値
	DefaultProjectType        string `yaml:"default_project_type"`
	DefaultNotificationScheme string `yaml:"default_notification_scheme"`
	DefaultPermissionScheme   string `yaml:"default_permission_scheme"`
	DefaultWorkflowScheme     string `yaml:"default_workflow_scheme"`
	DefaultLead               string `yaml:"default_lead"`
	DefaultUserGroup          string `yaml:"default_user_group"`

	// 出力・ログ
	OutputDir string `yaml:"output_dir"`
	LogLevel  string `yaml:"log_level"`
}

// デフォルト値
const (
	DefaultPageSize      = 25
	MaxPageSize          = 100
	DefaultStatus        = "To Do"
	DefaultType          = "Task"
	DefaultPriority      = "Medium"
	DefaultProjectType   = "software"
	DefaultUserGroup     = "jira-software-users"
	DefaultOutputDir     = "."
	DefaultLogLevel      = "info"
	DefaultEnvFile       = ".env"
	ConfigFileEnvVarName = "CONFIG_FILE"
)

// ErrWorklogRequiresUsers はワークログ出力がユーザー解決なしで要求された場合のエラーです
var ErrWorklogRequiresUsers = errors.New("REDMINE_PARSE_WORKLOG は JIRA_USE_REDMINE_USERS と併用する必要があります")

// Options は設定ファイルの場所とCLIからの上書き値です
type Options struct {
	EnvFile    string
	ConfigFile string
	OutputDir  string
	LogLevel   string
}

// Defaults はデフォルト値のみを持つ設定を返します
func Defaults() *Config {
	return &Config{
		PageSize:           DefaultPageSize,
		DefaultStatus:      DefaultStatus,
		DefaultType:        DefaultType,
		DefaultPriority:    DefaultPriority,
		DefaultProjectType: DefaultProjectType,
		DefaultUserGroup:   DefaultUserGroup,
		OutputDir:          DefaultOutputDir,
		LogLevel:           DefaultLogLevel,
	}
}

// LoadConfig はYAMLファイル、.envファイル、環境変数の順に設定を読み込みます
func LoadConfig(opts Options) (*Config, error) {
	cfg := Defaults()

	// YAML設定ファイル（任意）
	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = os.Getenv(ConfigFileEnvVarName)
	}
	if configFile != "" {
		if err := loadYAML(configFile, cfg); err != nil {
			return nil, err
		}
	}

	// .envファイルを読み込む（既存の環境変数は上書きしない）
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf(".envファイル読み込みエラー (%s): %w", envFile, err)
		}
	} else if opts.EnvFile != "" {
		return nil, fmt.Errorf(".envファイルが見つかりません: %s", envFile)
	}

	applyEnv(cfg)

	// CLIフラグによる上書き
	if opts.OutputDir != "" {
		cfg.OutputDir = opts.OutputDir
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	cfg.RedmineURL = strings.TrimRight(cfg.RedmineURL, "/")

	return cfg, nil
}

// Load は設定を読み込み、Redmineへの接続に必要な項目を検証します
func Load(opts Options) (*Config, error) {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("設定ファイル読み込みエラー (%s): %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("設定ファイル解析エラー (%s): %w", path, err)
	}
	return nil
}

// 環境変数が設定されている項目だけを上書きする
func applyEnv(cfg *Config) {
	cfg.RedmineURL = getEnvWithDefault("REDMINE_URL", cfg.RedmineURL)
	cfg.RedmineAPIKey = getEnvWithDefault("REDMINE_API_KEY", cfg.RedmineAPIKey)
	cfg.OnlyActiveUsers = getEnvAsBoolWithDefault("REDMINE_PARSE_ONLY_ACTIVE_USERS", cfg.OnlyActiveUsers)
	cfg.OnlyActiveTasks = getEnvAsBoolWithDefault("REDMINE_PARSE_ONLY_ACTIVE_TASKS", cfg.OnlyActiveTasks)
	cfg.ParseWorklog = getEnvAsBoolWithDefault("REDMINE_PARSE_WORKLOG", cfg.ParseWorklog)
	cfg.PageSize = getEnvAsIntWithDefault("REDMINE_PAGE_SIZE", cfg.PageSize)
	cfg.Timeout = getEnvAsDurationWithDefault("REDMINE_TIMEOUT", cfg.Timeout)

	cfg.UseRedmineStatuses = getEnvAsBoolWithDefault("JIRA_USE_REDMINE_STATUSES", cfg.UseRedmineStatuses)
	cfg.UseRedmineUsers = getEnvAsBoolWithDefault("JIRA_USE_REDMINE_USERS", cfg.UseRedmineUsers)
	cfg.DefaultAuthor = getEnvWithDefault("JIRA_DEFAULT_AUTHOR", cfg.DefaultAuthor)
	cfg.DefaultStatus = getEnvWithDefault("JIRA_DEFAULT_STATUS", cfg.DefaultStatus)
	cfg.DefaultType = getEnvWithDefault("JIRA_DEFAULT_TYPE", cfg.DefaultType)
	cfg.DefaultPriority = getEnvWithDefault("JIRA_DEFAULT_PRIORITY", cfg.DefaultPriority)

	cfg.DefaultProjectType = getEnvWithDefault("JIRA_DEFAULT_PROJECT_TYPE", cfg.DefaultProjectType)
	cfg.DefaultNotificationScheme = getEnvWithDefault("JIRA_DEFAULT_NOTIFICATION_SCHEME", cfg.DefaultNotificationScheme)
	cfg.DefaultPermissionScheme = getEnvWithDefault("JIRA_DEFAULT_PERMISSION_SCHEME", cfg.DefaultPermissionScheme)
	cfg.DefaultWorkflowScheme = getEnvWithDefault("JIRA_DEFAULT_WORKFLOW_SCHEME", cfg.DefaultWorkflowScheme)
	cfg.DefaultLead = getEnvWithDefault("JIRA_DEFAULT_LEAD", cfg.DefaultLead)
	cfg.DefaultUserGroup = getEnvWithDefault("JIRA_DEFAULT_USER_GROUP", cfg.DefaultUserGroup)

	cfg.OutputDir = getEnvWithDefault("OUTPUT_DIR", cfg.OutputDir)
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", cfg.LogLevel)
}

// ValidationError は設定検証で見つかったすべての問題を保持します
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("設定が不正です:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate はRedmineへの接続に必要な設定を検証します
func (c *Config) Validate() error {
	var problems []string

	if c.RedmineURL == "" {
		problems = append(problems, "REDMINE_URL は必須です")
	} else if u, err := url.Parse(c.RedmineURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, fmt.Sprintf("REDMINE_URL が不正です: %s", c.RedmineURL))
	}

	if c.RedmineAPIKey == "" {
		problems = append(problems, "REDMINE_API_KEY は必須です")
	}

	if c.PageSize < 1 || c.PageSize > MaxPageSize {
		problems = append(problems, fmt.Sprintf("REDMINE_PAGE_SIZE は1以上%d以下である必要があります: %d", MaxPageSize, c.PageSize))
	}

	if c.Timeout < 0 {
		problems = append(problems, "REDMINE_TIMEOUT は0以上である必要があります")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("LOG_LEVEL は debug, info, warn, error のいずれかです: %s", c.LogLevel))
	}

	if len(problems) > 0 {
		return &ValidationError{Errors: problems}
	}
	return nil
}

// ValidateIssueExport はイシュー出力時のオプションの組み合わせを検証します
func (c *Config) ValidateIssueExport() error {
	if c.ParseWorklog && !c.UseRedmineUsers {
		return ErrWorklogRequiresUsers
	}
	return nil
}

// ExportWorklogs はワークログを取得するかどうかを返します
func (c *Config) ExportWorklogs() bool {
	return c.UseRedmineUsers && c.ParseWorklog
}

// デフォルト値付きで環境変数を取得
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// デフォルト値付きで環境変数を整数として取得
func getEnvAsIntWithDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		utils.LogWarn("環境変数 %s の値 '%s' は整数ではありません。%d を使います", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// デフォルト値付きで環境変数を真偽値として取得
func getEnvAsBoolWithDefault(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		utils.LogWarn("環境変数 %s の値 '%s' は真偽値ではありません (true/false)。%t を使います", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		utils.LogWarn("環境変数 %s の値 '%s' は期間ではありません (例: 30s)。%s を使います", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}
