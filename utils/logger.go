package utils

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

// Level はログの出力レベルです
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	level = LevelInfo

	// SuccessPrinter は完了報告を書き出します
	SuccessPrinter = pterm.Success.WithWriter(os.Stdout)
	// WarnPrinter は警告を標準エラー出力に書き出します
	WarnPrinter = pterm.Warning.WithWriter(os.Stderr)
	// ErrorPrinter はエラーを標準エラー出力に書き出します
	ErrorPrinter = pterm.Error.WithWriter(os.Stderr)
)

// ParseLevel はログレベル文字列を解析します
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("不明なログレベル: %s", s)
}

// SetLogLevel はログレベルを設定します
func SetLogLevel(l Level) {
	level = l
	if l == LevelDebug {
		pterm.EnableDebugMessages()
	} else {
		pterm.DisableDebugMessages()
	}
}

// LogDebug はデバッグレベルのメッセージをログに記録します
func LogDebug(format string, v ...interface{}) {
	if level <= LevelDebug {
		pterm.Debug.Printfln(format, v...)
	}
}

// LogInfo は情報レベルのメッセージをログに記録します
func LogInfo(format string, v ...interface{}) {
	if level <= LevelInfo {
		pterm.Info.Printfln(format, v...)
	}
}

// LogSuccess は処理の完了をログに記録します。ログレベルに関係なく出力します。
func LogSuccess(format string, v ...interface{}) {
	SuccessPrinter.Printfln(format, v...)
}

// LogWarn は警告レベルのメッセージをログに記録します
func LogWarn(format string, v ...interface{}) {
	if level <= LevelWarn {
		WarnPrinter.Printfln(format, v...)
	}
}

// LogError はエラーレベルのメッセージをログに記録します
func LogError(format string, v ...interface{}) {
	ErrorPrinter.Printfln(format, v...)
}

// TrackTime は関数の実行時間を計測して出力するユーティリティです
func TrackTime(start time.Time, name string) {
	elapsed := time.Since(start)
	LogInfo("%s 完了時間: %s", name, elapsed.Round(time.Millisecond))
}
