package utils

import "github.com/pterm/pterm"

// Progress は処理件数を表示するプログレスバーです。
// 表示のみで、処理の流れには影響しません。
type Progress struct {
	bar *pterm.ProgressbarPrinter
}

// StartProgress はプログレスバーを開始します。
// 件数が0の場合やバーを開始できない場合は何も表示しません。
func StartProgress(title string, total int) *Progress {
	if total <= 0 {
		return &Progress{}
	}
	bar, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle(title).
		WithRemoveWhenDone(true).
		Start()
	if err != nil {
		LogDebug("プログレスバーを開始できません: %v", err)
		return &Progress{}
	}
	return &Progress{bar: bar}
}

// Increment は進捗を1件進めます
func (p *Progress) Increment() {
	if p.bar != nil {
		p.bar.Increment()
	}
}

// Stop はプログレスバーを終了します
func (p *Progress) Stop() {
	if p.bar != nil {
		_, _ = p.bar.Stop()
	}
}
