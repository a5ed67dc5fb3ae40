// Package main provides localization for the moviebarcode CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Input and Output": "入力と出力",
		"Barcode":          "バーコード",
		"Decoding":         "デコード",
		"Execution":        "実行",
		"Logging":          "ログ",

		// Commands
		"Generate movie barcodes from video files": "動画ファイルからムービーバーコードを生成",
		"Generate barcodes (default command)":      "バーコードを生成（デフォルトコマンド）",
		"Show version information":                 "バージョン情報を表示",
		"moviebarcode version %s":                  "moviebarcode バージョン %s",

		// Input and output flags
		"Input file, directory or wildcard pattern (repeatable)": "入力ファイル、ディレクトリまたはワイルドカード（複数指定可）",
		"Output file or directory (default: current directory)":  "出力ファイルまたはディレクトリ（デフォルト: カレントディレクトリ）",
		"Overwrite existing files instead of skipping them":      "既存のファイルをスキップせずに上書き",
		"Browse input directories recursively":                   "入力ディレクトリを再帰的に探索",
		"Write a Markdown summary of the batch to this file":     "バッチのMarkdownサマリーをこのファイルに書き込む",

		// Barcode flags
		"Width of the output image (default: %s)":                    "出力画像の幅（デフォルト: %s）",
		"Height of the output image (default: input height)":         "出力画像の高さ（デフォルト: 入力の高さ）",
		"Width of each bar (default: %s)":                            "各バーの幅（デフォルト: %s）",
		"Also generate a smoothed version suffixed with '_smoothed'": "'_smoothed' を付けた平滑化版も生成",
		"Strip reduction mode (resize, average)":                     "ストリップの縮小方式（resize, average）",

		// Decoding flags
		"Path to the ffmpeg binary (falls back to FFMPEG_PATH, then PATH)":   "ffmpeg のパス（未指定時は FFMPEG_PATH、次に PATH）",
		"Path to the ffprobe binary (falls back to FFPROBE_PATH, then PATH)": "ffprobe のパス（未指定時は FFPROBE_PATH、次に PATH）",

		// Execution flags
		"Number of files processed in parallel":                     "並列に処理するファイル数",
		"YAML configuration file":                                   "YAML設定ファイル",
		"Save the plan, sampled frames and strips to this directory": "計画、サンプリングしたフレームとストリップをこのディレクトリに保存",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Suppress all log output":              "すべてのログ出力を抑制",

		// Runtime messages
		"No input given, use --in": "入力が指定されていません。--in を使用してください",
		"Compositing":              "合成中",

		// Summary labels
		"Barcode Summary": "バーコードサマリー",
		"Generated":       "生成日時",
		"Settings":        "設定",
		"Setting":         "項目",
		"Value":           "値",
		"Width":           "幅",
		"Height":          "高さ",
		"Input height":    "入力の高さ",
		"Bar Width":       "バー幅",
		"Mode":            "モード",
		"Smoothed":        "平滑化",
		"Workers":         "ワーカー数",
		"Totals":          "集計",
		"Succeeded":       "成功",
		"Skipped":         "スキップ",
		"Failed":          "失敗",
		"Cancelled":       "キャンセル",
		"Elapsed":         "経過時間",
		"Files":           "ファイル",
		"Input":           "入力",
		"Status":          "状態",
		"Output":          "出力",
		"Size":            "サイズ",
		"Time":            "時間",
		"Errors":          "エラー",
		"Yes":             "はい",
		"No":              "いいえ",
		"succeeded":       "成功",
		"skipped":         "スキップ",
		"failed":          "失敗",
		"cancelled":       "キャンセル",
	})
}
