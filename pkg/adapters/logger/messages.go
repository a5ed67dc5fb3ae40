package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration level messages (info)
		"Processing %s":                          "%s を処理中",
		"Processing %d files with %d workers":    "%d 個のファイルを %d ワーカーで処理中",
		"Output saved to %s":                     "出力を %s に保存しました",
		"Smoothed output saved to %s":            "平滑化した出力を %s に保存しました",
		"Uploaded %s to %s":                      "%s を %s にアップロードしました",
		"Batch completed: %d succeeded, %d skipped, %d failed, %d cancelled": "バッチ完了: 成功 %d, スキップ %d, 失敗 %d, キャンセル %d",
		"Found %d input files":                   "%d 個の入力ファイルが見つかりました",
		"Summary written to %s":                  "サマリーを %s に書き込みました",
		"Interrupted, shutting down...":          "中断されました。シャットダウン中...",

		// Validate stage
		"Validating parameters for %s":           "%s のパラメータを検証中",
		"Using input height %d":                  "入力の高さ %d を使用します",
		"Plan: %d strips of %dx%d px, output %dx%d": "計画: %[2]dx%[3]d px のストリップ %[1]d 本, 出力 %[4]dx%[5]d",

		// Frame source
		"Probing %s":                             "%s のメタデータを取得中",
		"Probed %s: %dx%d, %s":                   "%s を取得: %dx%d, %s",
		"Native probe failed, falling back to ffprobe: %s": "ネイティブ取得に失敗しました。ffprobe にフォールバックします: %s",
		"Starting decoder: %s":                   "デコーダを起動中: %s",
		"Decoder finished after %d frames":       "デコーダが %d フレームで終了しました",
		"Video ended after %d of %d frames, repeating the last frame": "映像が %d / %d フレームで終了しました。最後のフレームを繰り返します",

		// Composite stage
		"Sampling %d frames from %s":             "%[2]s から %[1]d フレームをサンプリング中",
		"Compositing strip %d/%d":                "ストリップ合成中 %d/%d",
		"Composition completed in %s":            "合成が %s で完了しました",

		// Smooth stage
		"Smoothing %dx%d image":                  "%dx%d の画像を平滑化中",

		// Encode stage
		"Encoding %s as %s":                      "%s を %s としてエンコード中",
		"Encoded %d bytes":                       "%d バイトにエンコードしました",

		// Warnings
		"Skipping %s: output %s already exists":  "%s をスキップします: 出力 %s は既に存在します",
		"Skipping smoothed output: %s already exists": "平滑化出力をスキップします: %s は既に存在します",
		"Generation cancelled for %s":            "%s の生成がキャンセルされました",
		"No input files found":                   "入力ファイルが見つかりません",

		// Errors
		"Failed to process %s: %s":               "%s の処理に失敗しました: %s",
		"Failed to write smoothed output: %s":    "平滑化出力の書き込みに失敗しました: %s",
		"Failed to write summary: %s":            "サマリーの書き込みに失敗しました: %s",
	})
}
