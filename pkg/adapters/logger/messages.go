package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Logger
		"Last message repeated %d times": "直前のメッセージが %d 回繰り返されました",

		// Session manager (info)
		"Session manager started (%s backend)": "セッションマネージャーを開始しました (%s バックエンド)",
		"Session manager stopped":              "セッションマネージャーを停止しました",
		"Using %s backend":                     "%s バックエンドを使用します",
		"Encoding %dx%d at %d bps":             "%dx%d、%d bps でエンコード中",
		"Interrupted, shutting down...":        "中断されました。シャットダウン中...",

		// Session lifecycle (debug)
		"Created session %d: %dx%d %s, %d bps":         "セッション %d を作成: %dx%d %s, %d bps",
		"Session %d released (%s)":                     "セッション %d を解放しました (%s)",
		"Session %d supports %v":                       "セッション %d の対応プロパティ: %v",
		"Applied %s = %v to session %d":                "%s = %v をセッション %d に適用しました",
		"Settings %v require a new session":            "設定 %v の変更には新しいセッションが必要です",
		"Lifecycle event %s, session will be rebuilt":  "ライフサイクルイベント %s、セッションを再構築します",
		"Session %d completed a frame without a sample": "セッション %d はサンプルなしでフレームを完了しました",
		"Format changed: %s %dx%d":                     "フォーマットが変更されました: %s %dx%d",

		// Session failures (warn)
		"Failed to create compression session: %v":  "圧縮セッションの作成に失敗しました: %v",
		"Failed to prepare compression session: %s": "圧縮セッションの準備に失敗しました: %s",
		"Failed to set %s: %s":                      "%s の設定に失敗しました: %s",
		"Failed to encode frame %d: %s":             "フレーム %d のエンコードに失敗しました: %s",
		"Failed to flush session %d: %s":            "セッション %d のフラッシュに失敗しました: %s",
		"Compression failed in session %d: %s":      "セッション %d で圧縮に失敗しました: %s",
		"Frame %d dropped by encoder":               "フレーム %d はエンコーダーに破棄されました",
		"Frame dropped by encoder":                  "フレームはエンコーダーに破棄されました",
		"Ignoring format of session %d: %v":         "セッション %d のフォーマットを無視します: %v",

		// Backend selection
		"No H.264 encoder available, falling back to passthrough": "H.264エンコーダーが利用できないため、パススルーにフォールバックします",

		// ffmpeg backend
		"Started ffmpeg: %v":            "ffmpeg を起動しました: %v",
		"Failed to start ffmpeg: %v":    "ffmpeg の起動に失敗しました: %v",
		"Failed to get stdin pipe: %v":  "標準入力パイプの取得に失敗しました: %v",
		"Failed to get stdout pipe: %v": "標準出力パイプの取得に失敗しました: %v",
		"Failed to write frame: %v":     "フレームの書き込みに失敗しました: %v",
		"ffmpeg output closed: %v":      "ffmpeg の出力が閉じられました: %v",
		"ffmpeg exited: %v: %s":         "ffmpeg が終了しました: %v: %s",

		// MP4 writer
		"Wrote segment %s (%d bytes)": "セグメント %s を書き込みました (%d バイト)",
		"Dropping sample at %v: %v":   "%v のサンプルを破棄します: %v",
		"mp4 writer error: %v":        "MP4ライターのエラー: %v",

		// Screencast source
		"Skipping screencast frame: %v":              "スクリーンキャストフレームをスキップします: %v",
		"Screencast consumer is behind, frame skipped": "スクリーンキャストの処理が遅れているため、フレームをスキップしました",

		// Test pattern source
		"Failed to load font %s: %v": "フォント %s の読み込みに失敗しました: %v",

		// Runner
		"Applied change %s":         "変更 %s を適用しました",
		"Change %s rejected: %v":    "変更 %s は拒否されました: %v",
		"Serving metrics on %s":     "%s でメトリクスを公開中",
		"Metrics server stopped: %v": "メトリクスサーバーが停止しました: %v",
		"Summary saved to %s":        "サマリーを %s に保存しました",
		"Failed to write summary: %v": "サマリーの書き込みに失敗しました: %v",
	})
}
