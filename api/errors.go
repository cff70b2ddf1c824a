package api

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError はRedmine API呼び出しの失敗を表します
type APIError struct {
	Method     string
	Path       string
	StatusCode int    // 通信エラーの場合は0
	Body       string // レスポンス本文の先頭部分
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("Redmine API エラー (%s %s): %v", e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("Redmine API エラー (%s %s): ステータス %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsNotFound はエラーが404レスポンスかどうかを返します
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsUnauthorized はエラーが認証失敗かどうかを返します
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) &&
		(apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden)
}
