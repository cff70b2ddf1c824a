package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"redminetojira/config"
	"redminetojira/utils"
)

// 出力ファイルのパス (OUTPUT_DIR からの相対パス)
const (
	issuesDir       = "issues"
	usersFile       = "users/jira_users.json"
	projectsFile    = "projects/jira_projects.json"
	issueFilePrefix = "jira_issues_"
)

// IssuesFile はRedmineプロジェクトごとのイシュー出力ファイルのパスを返します
func IssuesFile(projectID string) string {
	return filepath.Join(issuesDir, issueFilePrefix+projectID+".json")
}

// JSONWriter はJIRAインポート用JSONファイルの書き込みを担当します
type JSONWriter struct {
	config *config.Config
}

// NewJSONWriter は新しいJSONライターを作成します
func NewJSONWriter(cfg *config.Config) *JSONWriter {
	return &JSONWriter{
		config: cfg,
	}
}

// Write はドキュメントを整形済みJSONとして書き込み、書き込んだパスを返します。
// 一時ファイルに書き込んでから置き換えるため、途中までのファイルは残りません。
func (w *JSONWriter) Write(relPath string, document any) (string, error) {
	fileName := filepath.Join(w.config.OutputDir, relPath)
	utils.LogDebug("JSONファイル '%s' を作成します", fileName)

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return "", fmt.Errorf("JSONエンコードエラー: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(fileName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ディレクトリ作成エラー: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(fileName)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("一時ファイル作成エラー: %w", err)
	}
	tmpName := tmp.Name()
	// 成功時はリネーム済みなので削除は失敗するだけ
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("ファイル書き込みエラー: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("ファイル書き込み完了エラー: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", fmt.Errorf("ファイル権限設定エラー: %w", err)
	}
	if err := os.Rename(tmpName, fileName); err != nil {
		return "", fmt.Errorf("ファイル置き換えエラー: %w", err)
	}

	return fileName, nil
}
