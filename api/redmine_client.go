package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"redminetojira/config"
	"redminetojira/models"
	"redminetojira/utils"
)

const (
	apiKeyHeader = "X-Redmine-API-Key"
	// エラーメッセージに含めるレスポンス本文の最大長
	maxErrorBody = 512
)

// UserStatus はユーザー一覧取得時のステータス指定です
type UserStatus string

const (
	// UserStatusAny は全ステータスのユーザーを取得します
	UserStatusAny    UserStatus = ""
	UserStatusActive UserStatus = "1"
	UserStatusLocked UserStatus = "3"
)

// RedmineClient はRedmine REST APIとのやり取りを処理します
type RedmineClient struct {
	config *config.Config
	client *http.Client
}

// NewRedmineClient は新しいRedmineクライアントを作成します
func NewRedmineClient(cfg *config.Config) *RedmineClient {
	return &RedmineClient{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// CheckAuth はAPIキーを確認し、認証されたユーザーのログイン名を返します
func (r *RedmineClient) CheckAuth(ctx context.Context) (string, error) {
	var resp struct {
		User models.RedmineUser `json:"user"`
	}
	if err := r.getJSON(ctx, "/users/current.json", nil, &resp); err != nil {
		return "", err
	}
	return resp.User.Login, nil
}

// GetIssues はプロジェクトのイシューをすべて取得します
func (r *RedmineClient) GetIssues(ctx context.Context, projectID string) ([]models.RedmineIssue, error) {
	params := url.Values{}
	if !r.config.OnlyActiveTasks {
		params.Set("status_id", "*")
	}
	path := fmt.Sprintf("/projects/%s/issues.json", url.PathEscape(projectID))
	return fetchAll[models.RedmineIssue](ctx, r, path, params, "issues")
}

// GetIssueJournals はイシューの履歴（コメント）を取得します
func (r *RedmineClient) GetIssueJournals(ctx context.Context, issueID int) ([]models.RedmineJournal, error) {
	var resp struct {
		Issue struct {
			Journals []models.RedmineJournal `json:"journals"`
		} `json:"issue"`
	}
	params := url.Values{"include": {"journals"}}
	if err := r.getJSON(ctx, fmt.Sprintf("/issues/%d.json", issueID), params, &resp); err != nil {
		return nil, err
	}
	return resp.Issue.Journals, nil
}

// GetTimeEntries はイシューに記録された作業時間をすべて取得します
func (r *RedmineClient) GetTimeEntries(ctx context.Context, projectID string, issueID int) ([]models.RedmineTimeEntry, error) {
	params := url.Values{"issue_id": {strconv.Itoa(issueID)}}
	path := fmt.Sprintf("/projects/%s/time_entries.json", url.PathEscape(projectID))
	return fetchAll[models.RedmineTimeEntry](ctx, r, path, params, "time_entries")
}

// GetUsers は指定ステータスのユーザーをすべて取得します
func (r *RedmineClient) GetUsers(ctx context.Context, status UserStatus) ([]models.RedmineUser, error) {
	params := url.Values{"status": {string(status)}}
	return fetchAll[models.RedmineUser](ctx, r, "/users.json", params, "users")
}

// GetProjects はプロジェクトをすべて取得します
func (r *RedmineClient) GetProjects(ctx context.Context) ([]models.RedmineProject, error) {
	return fetchAll[models.RedmineProject](ctx, r, "/projects.json", nil, "projects")
}

// fetchAll はoffsetを進めながら total_count に達するまで全ページを取得します。
// ページ間で total_count が変わっても調整はしません。
func fetchAll[T any](ctx context.Context, r *RedmineClient, path string, params url.Values, key string) ([]T, error) {
	limit := r.config.PageSize
	if limit < 1 {
		limit = config.DefaultPageSize
	}

	var items []T
	offset := 0
	for {
		query := url.Values{}
		for k, v := range params {
			query[k] = v
		}
		query.Set("offset", strconv.Itoa(offset))
		query.Set("limit", strconv.Itoa(limit))

		var page map[string]json.RawMessage
		if err := r.getJSON(ctx, path, query, &page); err != nil {
			return nil, err
		}

		var pageItems []T
		if raw, ok := page[key]; ok {
			if err := json.Unmarshal(raw, &pageItems); err != nil {
				return nil, fmt.Errorf("レスポンス解析エラー (%s): %w", key, err)
			}
		}
		var totalCount int
		if raw, ok := page["total_count"]; ok {
			if err := json.Unmarshal(raw, &totalCount); err != nil {
				return nil, fmt.Errorf("total_count 解析エラー: %w", err)
			}
		}

		// サーバー側で上限に丸められた場合は返ってきた limit だけ進める
		step := limit
		var served int
		if raw, ok := page["limit"]; ok {
			if err := json.Unmarshal(raw, &served); err != nil {
				return nil, fmt.Errorf("limit 解析エラー: %w", err)
			}
		}
		if served > 0 && served < step {
			step = served
		}

		items = append(items, pageItems...)
		utils.LogDebug("%s: offset=%d limit=%d 取得=%d 合計=%d", path, offset, step, len(pageItems), totalCount)

		offset += step
		if offset >= totalCount {
			break
		}
	}

	if items == nil {
		items = []T{}
	}
	return items, nil
}

// getJSON はGETリクエストを送信しレスポンスをデコードします
func (r *RedmineClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := r.config.RedmineURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("リクエスト作成エラー: %w", err)
	}
	req.Header.Set(apiKeyHeader, r.config.RedmineAPIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return &APIError{Method: http.MethodGet, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			Method:     http.MethodGet,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("レスポンス解析エラー (%s): %w", path, err)
	}
	return nil
}
