package services

import (
	"context"
	"fmt"
	"time"

	"redminetojira/api"
	"redminetojira/config"
	"redminetojira/models"
	"redminetojira/utils"
)

// RedmineSource はエクスポートに必要なRedmine APIの操作です
type RedmineSource interface {
	GetIssues(ctx context.Context, projectID string) ([]models.RedmineIssue, error)
	GetIssueJournals(ctx context.Context, issueID int) ([]models.RedmineJournal, error)
	GetTimeEntries(ctx context.Context, projectID string, issueID int) ([]models.RedmineTimeEntry, error)
	GetUsers(ctx context.Context, status api.UserStatus) ([]models.RedmineUser, error)
	GetProjects(ctx context.Context) ([]models.RedmineProject, error)
}

// Result はエクスポート結果です
type Result struct {
	Path  string
	Count int
}

// ExportService はRedmineからJIRAインポート形式へのエクスポートを処理します
type ExportService struct {
	config *config.Config
	source RedmineSource
	writer *JSONWriter
}

// NewExportService は新しいエクスポートサービスを作成します
func NewExportService(cfg *config.Config, source RedmineSource, writer *JSONWriter) *ExportService {
	return &ExportService{
		config: cfg,
		source: source,
		writer: writer,
	}
}

// ExportIssues はRedmineプロジェクトのイシューをJIRAプロジェクトキーの下に出力します
func (s *ExportService) ExportIssues(ctx context.Context, projectID, jiraProjectKey string) (*Result, error) {
	// 通信を始める前に設定の組み合わせを確認
	if err := s.config.ValidateIssueExport(); err != nil {
		return nil, err
	}

	startTime := time.Now()
	defer utils.TrackTime(startTime, "イシューエクスポート")

	utils.LogInfo("Redmineプロジェクト '%s' のイシューを取得しています...", projectID)
	issues, err := s.source.GetIssues(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("イシュー取得エラー: %w", err)
	}
	utils.LogInfo("イシューを取得しました: %d 件", len(issues))

	if err := s.enrichIssues(ctx, projectID, issues); err != nil {
		return nil, err
	}

	var transformer *IssueTransformer
	if s.config.UseRedmineUsers {
		lookup, err := s.buildUserLookup(ctx)
		if err != nil {
			return nil, err
		}
		transformer = NewUserAwareIssueTransformer(s.config, lookup)
	} else {
		transformer = NewSimpleIssueTransformer(s.config)
	}

	jiraIssues, err := transformer.Transform(issues)
	if err != nil {
		return nil, fmt.Errorf("イシュー変換エラー: %w", err)
	}

	document := models.JiraIssuesDocument{
		Projects: []models.JiraProjectIssues{
			{Key: jiraProjectKey, Issues: jiraIssues},
		},
	}
	fileName, err := s.writer.Write(IssuesFile(projectID), document)
	if err != nil {
		return nil, fmt.Errorf("イシュー書き込みエラー: %w", err)
	}

	utils.LogSuccess("エクスポートが完了しました。ファイル %s を作成しました (イシュー: %d 件)", fileName, len(issues))
	return &Result{Path: fileName, Count: len(issues)}, nil
}

// enrichIssues は各イシューにコメントとワークログを1件ずつ順番に追加します
func (s *ExportService) enrichIssues(ctx context.Context, projectID string, issues []models.RedmineIssue) error {
	withWorklogs := s.config.ExportWorklogs()

	progress := utils.StartProgress("コメント取得", len(issues))
	defer progress.Stop()

	for i := range issues {
		issue := &issues[i]

		journals, err := s.source.GetIssueJournals(ctx, issue.ID)
		if err != nil {
			return fmt.Errorf("イシュー #%d のコメント取得エラー: %w", issue.ID, err)
		}
		issue.Comments = journals

		issue.Worklogs = []models.RedmineTimeEntry{}
		if withWorklogs {
			entries, err := s.source.GetTimeEntries(ctx, projectID, issue.ID)
			if err != nil {
				return fmt.Errorf("イシュー #%d の作業時間取得エラー: %w", issue.ID, err)
			}
			issue.Worklogs = entries
		}

		progress.Increment()
	}
	return nil
}

// buildUserLookup はイシュー変換用にユーザーをすべて取得して検索表を作ります
func (s *ExportService) buildUserLookup(ctx context.Context) (UserLookup, error) {
	status := api.UserStatusAny
	if s.config.OnlyActiveUsers {
		status = api.UserStatusActive
	}

	utils.LogInfo("Redmineユーザーを取得しています...")
	users, err := s.source.GetUsers(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("ユーザー取得エラー: %w", err)
	}
	utils.LogInfo("ユーザーを取得しました: %d 件", len(users))
	return NewUserLookup(users), nil
}

// ExportUsers はRedmineユーザーを出力します
func (s *ExportService) ExportUsers(ctx context.Context) (*Result, error) {
	startTime := time.Now()
	defer utils.TrackTime(startTime, "ユーザーエクスポート")

	users, err := s.fetchUsersWithStatus(ctx)
	if err != nil {
		return nil, err
	}

	document := models.JiraUsersDocument{Users: TransformUsers(s.config, users)}
	fileName, err := s.writer.Write(usersFile, document)
	if err != nil {
		return nil, fmt.Errorf("ユーザー書き込みエラー: %w", err)
	}

	utils.LogSuccess("エクスポートが完了しました。ファイル %s を作成しました (ユーザー: %d 件)", fileName, len(users))
	return &Result{Path: fileName, Count: len(users)}, nil
}

// fetchUsersWithStatus は有効・ロック中のユーザーを別々に取得し、有効フラグを付けて結合します。
// RedmineのAPIは一度の取得で有効状態を一貫して返さないためです。
func (s *ExportService) fetchUsersWithStatus(ctx context.Context) ([]models.RedmineUser, error) {
	utils.LogInfo("有効なユーザーを取得しています...")
	active, err := s.source.GetUsers(ctx, api.UserStatusActive)
	if err != nil {
		return nil, fmt.Errorf("有効ユーザー取得エラー: %w", err)
	}
	for i := range active {
		active[i].Active = true
	}

	if s.config.OnlyActiveUsers {
		return active, nil
	}

	utils.LogInfo("ロック中のユーザーを取得しています...")
	locked, err := s.source.GetUsers(ctx, api.UserStatusLocked)
	if err != nil {
		return nil, fmt.Errorf("ロック中ユーザー取得エラー: %w", err)
	}
	for i := range locked {
		locked[i].Active = false
	}

	users := make([]models.RedmineUser, 0, len(active)+len(locked))
	users = append(users, active...)
	return append(users, locked...), nil
}

// ExportProjects はRedmineプロジェクトを出力します
func (s *ExportService) ExportProjects(ctx context.Context) (*Result, error) {
	startTime := time.Now()
	defer utils.TrackTime(startTime, "プロジェクトエクスポート")

	utils.LogInfo("Redmineプロジェクトを取得しています...")
	projects, err := s.source.GetProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト取得エラー: %w", err)
	}

	document := models.JiraProjectsDocument{Projects: TransformProjects(s.config, projects)}
	fileName, err := s.writer.Write(projectsFile, document)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト書き込みエラー: %w", err)
	}

	utils.LogSuccess("エクスポートが完了しました。ファイル %s を作成しました (プロジェクト: %d 件)", fileName, len(projects))
	return &Result{Path: fileName, Count: len(projects)}, nil
}

// IssueTarget はイシューを出力するRedmineプロジェクトとJIRAプロジェクトキーの組です
type IssueTarget struct {
	RedmineProject string
	JiraProjectKey string
}

// RunAll はプロジェクト・ユーザー・イシューのエクスポートを順番に実行します
func (s *ExportService) RunAll(ctx context.Context, targets []IssueTarget) error {
	startTime := time.Now()
	defer utils.TrackTime(startTime, "エクスポート処理全体")

	// イシューの設定は最初に確認する
	if len(targets) > 0 {
		if err := s.config.ValidateIssueExport(); err != nil {
			return err
		}
	}

	if _, err := s.ExportProjects(ctx); err != nil {
		return err
	}
	if _, err := s.ExportUsers(ctx); err != nil {
		return err
	}
	for _, target := range targets {
		if _, err := s.ExportIssues(ctx, target.RedmineProject, target.JiraProjectKey); err != nil {
			return fmt.Errorf("%s: %w", target.RedmineProject, err)
		}
	}

	utils.LogInfo("エクスポート処理が完了しました")
	return nil
}
