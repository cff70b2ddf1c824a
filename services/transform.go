package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"redminetojira/config"
	"redminetojira/models"
)

const (
	// ZeroDuration は作業時間0を表すISO 8601の期間です
	ZeroDuration = "PT0M"

	// jiraTimestampFormat はJIRAインポートで使う日時形式です (UTC, ミリ秒付き)
	jiraTimestampFormat = "2006-01-02T15:04:05.000Z"

	maxProjectKeyLength = 10
	projectAssigneeType = "PROJECT_LEAD"
)

// Redmineが返す日時の形式
var redmineTimeFormats = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UserLookup はRedmineユーザーIDからユーザーを引くための表です
type UserLookup map[int]models.RedmineUser

// NewUserLookup はユーザー一覧から検索表を作成します
func NewUserLookup(users []models.RedmineUser) UserLookup {
	lookup := make(UserLookup, len(users))
	for _, u := range users {
		lookup[u.ID] = u
	}
	return lookup
}

// Login はユーザーIDに対応するログイン名を返します
func (l UserLookup) Login(id int) (string, bool) {
	u, ok := l[id]
	if !ok {
		return "", false
	}
	return u.Login, true
}

// IssueTransformer はRedmineのイシューをJIRAインポート形式に変換します
type IssueTransformer struct {
	config *config.Config
	// nilの場合はユーザーを解決しない
	users UserLookup
}

// NewSimpleIssueTransformer は報告者を常にデフォルト値にする変換器を作成します
func NewSimpleIssueTransformer(cfg *config.Config) *IssueTransformer {
	return &IssueTransformer{config: cfg}
}

// NewUserAwareIssueTransformer はRedmineユーザーを解決する変換器を作成します
func NewUserAwareIssueTransformer(cfg *config.Config, users UserLookup) *IssueTransformer {
	if users == nil {
		users = UserLookup{}
	}
	return &IssueTransformer{config: cfg, users: users}
}

// Transform はイシュー一覧を変換します
func (t *IssueTransformer) Transform(issues []models.RedmineIssue) ([]models.JiraIssue, error) {
	result := make([]models.JiraIssue, 0, len(issues))
	for _, issue := range issues {
		jiraIssue, err := t.transformIssue(issue)
		if err != nil {
			return nil, fmt.Errorf("イシュー #%d の変換エラー: %w", issue.ID, err)
		}
		result = append(result, jiraIssue)
	}
	return result, nil
}

func (t *IssueTransformer) transformIssue(issue models.RedmineIssue) (models.JiraIssue, error) {
	created, err := NormalizeTimestamp(issue.CreatedOn)
	if err != nil {
		return models.JiraIssue{}, err
	}
	updated, err := NormalizeTimestamp(issue.UpdatedOn)
	if err != nil {
		return models.JiraIssue{}, err
	}

	status := t.config.DefaultStatus
	if t.config.UseRedmineStatuses {
		status = issue.Status.Name
	}

	jiraIssue := models.JiraIssue{
		Priority:         t.config.DefaultPriority,
		Reporter:         t.config.DefaultAuthor,
		Description:      issue.Description,
		Status:           status,
		IssueType:        t.config.DefaultType,
		Created:          created,
		Updated:          updated,
		Summary:          issue.Subject,
		ExternalID:       strconv.Itoa(issue.ID),
		OriginalEstimate: HoursToDuration(issue.EstimatedHours),
	}

	jiraIssue.Comments, err = t.transformComments(issue.Comments)
	if err != nil {
		return models.JiraIssue{}, err
	}

	// ユーザー解決なしの場合はここまで
	if t.users == nil {
		return jiraIssue, nil
	}

	if login, ok := t.users.Login(issue.Author.ID); ok {
		jiraIssue.Reporter = login
	}
	if issue.AssignedTo != nil && issue.AssignedTo.ID != 0 {
		if login, ok := t.users.Login(issue.AssignedTo.ID); ok {
			jiraIssue.Assignee = &login
		}
	}

	jiraIssue.Worklogs, err = t.transformWorklogs(issue.Worklogs)
	if err != nil {
		return models.JiraIssue{}, err
	}

	return jiraIssue, nil
}

// 本文が空のコメントは除外する
func (t *IssueTransformer) transformComments(journals []models.RedmineJournal) ([]models.JiraComment, error) {
	comments := make([]models.JiraComment, 0, len(journals))
	for _, journal := range journals {
		if journal.Notes == nil || strings.TrimSpace(*journal.Notes) == "" {
			continue
		}

		created, err := NormalizeTimestamp(journal.CreatedOn)
		if err != nil {
			return nil, err
		}

		comment := models.JiraComment{
			Body:    *journal.Notes,
			Created: created,
		}
		if t.users != nil {
			if login, ok := t.users.Login(journal.User.ID); ok {
				comment.Author = models.StringValue(login)
			} else {
				comment.Author = models.Null()
			}
		}
		comments = append(comments, comment)
	}
	return comments, nil
}

func (t *IssueTransformer) transformWorklogs(entries []models.RedmineTimeEntry) ([]models.JiraWorklog, error) {
	worklogs := make([]models.JiraWorklog, 0, len(entries))
	for _, entry := range entries {
		startDate, err := NormalizeTimestamp(entry.SpentOn)
		if err != nil {
			return nil, err
		}

		hours := entry.Hours
		worklog := models.JiraWorklog{
			TimeSpent: HoursToDuration(&hours),
			StartDate: startDate,
		}
		if login, ok := t.users.Login(entry.User.ID); ok {
			worklog.Author = &login
		}
		if entry.Comments != nil {
			worklog.Comment = *entry.Comments
		}
		worklogs = append(worklogs, worklog)
	}
	return worklogs, nil
}

// HoursToDuration は時間数をISO 8601の期間 (例: PT1H30M) に変換します。
// 分単位に丸め、0の成分は出力しません。
func HoursToDuration(hours *float64) string {
	if hours == nil || *hours == 0 {
		return ZeroDuration
	}

	totalMinutes := int(math.Round(*hours * 60))
	if totalMinutes <= 0 {
		return ZeroDuration
	}

	h := totalMinutes / 60
	m := totalMinutes % 60

	var b strings.Builder
	b.WriteString("PT")
	if h > 0 {
		b.WriteString(strconv.Itoa(h))
		b.WriteString("H")
	}
	if m > 0 {
		b.WriteString(strconv.Itoa(m))
		b.WriteString("M")
	}
	return b.String()
}

// NormalizeTimestamp はRedmineの日時をJIRAの日時形式 (UTC) に変換します
func NormalizeTimestamp(value string) (string, error) {
	for _, format := range redmineTimeFormats {
		t, err := time.Parse(format, value)
		if err == nil {
			return t.UTC().Format(jiraTimestampFormat), nil
		}
	}
	return "", fmt.Errorf("日時変換エラー: '%s'", value)
}

// ProjectKey はRedmineの識別子からJIRAのプロジェクトキーを作成します
func ProjectKey(identifier string) string {
	key := strings.NewReplacer("-", "", "_", "").Replace(identifier)
	key = strings.ToUpper(key)

	runes := []rune(key)
	if len(runes) > maxProjectKeyLength {
		key = string(runes[:maxProjectKeyLength])
	}
	return key
}

// TransformProjects はプロジェクト一覧をJIRAインポート形式に変換します
func TransformProjects(cfg *config.Config, projects []models.RedmineProject) []models.JiraProject {
	result := make([]models.JiraProject, 0, len(projects))
	for _, project := range projects {
		result = append(result, models.JiraProject{
			AssigneeType:       projectAssigneeType,
			ProjectTypeKey:     cfg.DefaultProjectType,
			Name:               project.Name,
			Key:                ProjectKey(project.Identifier),
			Lead:               cfg.DefaultLead,
			NotificationScheme: cfg.DefaultNotificationScheme,
			PermissionScheme:   cfg.DefaultPermissionScheme,
			WorkflowSchemeID:   cfg.DefaultWorkflowScheme,
		})
	}
	return result
}

// TransformUsers はユーザー一覧をJIRAインポート形式に変換します
func TransformUsers(cfg *config.Config, users []models.RedmineUser) []models.JiraUser {
	result := make([]models.JiraUser, 0, len(users))
	for _, user := range users {
		result = append(result, models.JiraUser{
			Name:     user.Login,
			Groups:   []string{cfg.DefaultUserGroup},
			Active:   user.Active,
			Email:    user.Mail,
			FullName: user.LastName + " " + user.FirstName,
		})
	}
	return result
}
