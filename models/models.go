package models

import "encoding/json"

// RedmineRef はRedmineのレスポンス内で参照されるオブジェクト (id + name) です
type RedmineRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// RedmineIssue はRedmineのイシューを表します
type RedmineIssue struct {
	ID             int         `json:"id"`
	Project        RedmineRef  `json:"project"`
	Subject        string      `json:"subject"`
	Description    string      `json:"description"`
	Status         RedmineRef  `json:"status"`
	Author         RedmineRef  `json:"author"`
	AssignedTo     *RedmineRef `json:"assigned_to"`
	CreatedOn      string      `json:"created_on"`
	UpdatedOn      string      `json:"updated_on"`
	EstimatedHours *float64    `json:"estimated_hours"`

	// 取得後にイシューごとに追加される情報
	Comments []RedmineJournal   `json:"-"`
	Worklogs []RedmineTimeEntry `json:"-"`
}

// RedmineJournal はイシューの履歴（コメント）です
type RedmineJournal struct {
	ID        int        `json:"id"`
	User      RedmineRef `json:"user"`
	Notes     *string    `json:"notes"`
	CreatedOn string     `json:"created_on"`
}

// RedmineTimeEntry はイシューに記録された作業時間です
type RedmineTimeEntry struct {
	ID       int        `json:"id"`
	User     RedmineRef `json:"user"`
	Hours    float64    `json:"hours"`
	Comments *string    `json:"comments"`
	SpentOn  string     `json:"spent_on"`
}

// RedmineUser はRedmineのユーザーを表します
type RedmineUser struct {
	ID        int    `json:"id"`
	Login     string `json:"login"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Mail      string `json:"mail"`
	Status    int    `json:"status"`

	// Active は取得時のステータス指定から決まります
	Active bool `json:"-"`
}

// RedmineProject はRedmineのプロジェクトを表します
type RedmineProject struct {
	ID         int    `json:"id"`
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
}

// JiraIssue はJIRAインポート形式のイシューを表します
type JiraIssue struct {
	Priority         string        `json:"priority"`
	Reporter         string        `json:"reporter"`
	Assignee         *string       `json:"assignee,omitempty"`
	Description      string        `json:"description"`
	Status           string        `json:"status"`
	IssueType        string        `json:"issueType"`
	Created          string        `json:"created"`
	Updated          string        `json:"updated"`
	Summary          string        `json:"summary"`
	ExternalID       string        `json:"externalId"`
	OriginalEstimate string        `json:"originalEstimate"`
	Comments         []JiraComment `json:"comments"`
	// nilの場合は出力しない（ユーザー解決なしのモード）
	Worklogs []JiraWorklog `json:"worklogs,omitzero"`
}

// JiraComment はJIRAインポート形式のコメントです
type JiraComment struct {
	Body    string     `json:"body"`
	Author  NullString `json:"author,omitzero"`
	Created string     `json:"created"`
}

// JiraWorklog はJIRAインポート形式のワークログです
type JiraWorklog struct {
	Author    *string `json:"author,omitempty"`
	TimeSpent string  `json:"timeSpent"`
	StartDate string  `json:"startDate"`
	Comment   string  `json:"comment"`
}

// JiraProjectIssues はイシュー出力ファイル内のプロジェクトです
type JiraProjectIssues struct {
	Key    string      `json:"key"`
	Issues []JiraIssue `json:"issues"`
}

// JiraIssuesDocument はイシュー出力ファイル全体です
type JiraIssuesDocument struct {
	Projects []JiraProjectIssues `json:"projects"`
}

// JiraUser はJIRAインポート形式のユーザーです
type JiraUser struct {
	Name     string   `json:"name"`
	Groups   []string `json:"groups"`
	Active   bool     `json:"active"`
	Email    string   `json:"email"`
	FullName string   `json:"fullname"`
}

// JiraUsersDocument はユーザー出力ファイル全体です
type JiraUsersDocument struct {
	Users []JiraUser `json:"users"`
}

// JiraProject はJIRAインポート形式のプロジェクトです
type JiraProject struct {
	AssigneeType       string `json:"assigneeType"`
	ProjectTypeKey     string `json:"projectTypeKey"`
	Name               string `json:"name"`
	Key                string `json:"key"`
	Lead               string `json:"lead"`
	NotificationScheme string `json:"notificationScheme"`
	PermissionScheme   string `json:"permissionScheme"`
	WorkflowSchemeID   string `json:"workflowSchemeId"`
}

// JiraProjectsDocument はプロジェクト出力ファイル全体です
type JiraProjectsDocument struct {
	Projects []JiraProject `json:"projects"`
}

// NullString は「値あり」「明示的なnull」「省略」の3状態を持つ文字列です。
// omitzero タグと組み合わせて使います。
type NullString struct {
	Value string
	Valid bool
	Set   bool
}

// StringValue は値ありのNullStringを返します
func StringValue(s string) NullString {
	return NullString{Value: s, Valid: true, Set: true}
}

// Null は明示的なnullとして出力されるNullStringを返します
func Null() NullString {
	return NullString{Set: true}
}

// IsZero はフィールドを省略すべきかどうかを返します
func (n NullString) IsZero() bool {
	return !n.Set
}

// MarshalJSON implements json.Marshaler.
func (n NullString) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value, n.Valid = "", false
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}
