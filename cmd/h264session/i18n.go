// Package main provides localization for the h264session CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Configuration": "設定ファイル",
		"Backend":       "バックエンド",
		"Encoder":       "エンコーダー",
		"Source":        "入力ソース",
		"Session":       "セッション",
		"Output":        "出力先",
		"Logging":       "ログ",

		// Root command
		"Drive an H.264 compression session from a frame source": "フレームソースからH.264圧縮セッションを駆動",

		// Commands
		"Encode frames from a source into fragmented MP4 segments": "ソースのフレームをフラグメント化MP4セグメントにエンコード",
		"List the session properties supported by a backend":       "バックエンドが対応するセッションプロパティを一覧表示",
		"List encoder settings with their class and value":         "エンコーダー設定を分類と値とともに一覧表示",
		"Summarize fragmented MP4 segments":                        "フラグメント化MP4セグメントの概要を表示",
		"Show version information":                                 "バージョン情報を表示",
		"h264session version %s":                                   "h264session バージョン %s",

		// Common flags
		"YAML configuration file":                                           "YAML設定ファイル",
		"Compression backend (auto, videotoolbox, ffmpeg, passthrough)":     "圧縮バックエンド（auto, videotoolbox, ffmpeg, passthrough）",
		"Path to ffmpeg executable":                                         "ffmpeg実行ファイルのパス",
		"Fall back to the passthrough backend when no encoder is available": "エンコーダーが利用できない場合にパススルーへフォールバック",
		"Encoder setting as name=value (repeatable)":                        "エンコーダー設定 name=value（複数指定可）",
		"Log level (debug, info, warn, error)":                              "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                                           "全てのログ出力を抑制",

		// Encode flags
		"Frame source (testpattern, screencast)":                 "フレームソース（testpattern, screencast）",
		"URL to record with the screencast source":               "スクリーンキャストで記録するURL",
		"Path to Chrome executable":                              "Chrome実行ファイルのパス",
		"Number of frames to encode (0 = until the source ends)": "エンコードするフレーム数（0 = ソース終了まで）",
		"Screencast recording duration":                          "スクリーンキャストの記録時間",
		"Pace test pattern frames in real time":                  "テストパターンを実時間で生成",
		"Scheduled change as frame:name=value, frame:suspend, frame:resume or frame:invalidate (repeatable)": "予定された変更 frame:name=value, frame:suspend, frame:resume, frame:invalidate（複数指定可）",
		"Timestamp policy (synthetic, caller)":                   "タイムスタンプ方式（synthetic, caller）",
		"Output directory for MP4 segments":                      "MP4セグメントの出力ディレクトリ",
		"Serve Prometheus metrics on this address (e.g., :9090)": "このアドレスでPrometheusメトリクスを公開（例: :9090）",
		"Write a run summary to this file (Markdown format)":     "実行サマリーをファイルに出力（Markdown形式）",

		// Summary output
		"Frames: %d in %s":                                   "フレーム数: %d（%s）",
		"Changes: %d applied, %d rejected":                   "変更: %d 件適用, %d 件拒否",
		"Segments: %d, Fragments: %d, Samples: %d, Bytes: %d": "セグメント: %d, フラグメント: %d, サンプル: %d, バイト: %d",
		"Backend: %s":                                        "バックエンド: %s",
		"  Fragments: %d, Samples: %d, Keyframes: %d":        "  フラグメント: %d, サンプル: %d, キーフレーム: %d",
		"  Duration: %s, Bytes: %d":                          "  再生時間: %s, バイト: %d",
		"  Warning: a fragment does not start with a keyframe": "  警告: キーフレームで始まらないフラグメントがあります",

		// Summary content
		"Encoding Summary": "エンコードサマリー",
		"Generated":        "生成日時",
		"Results":          "実行結果",
		"Settings":         "設定",
		"Item":             "項目",
		"Value":            "値",
		"Frames":           "フレーム数",
		"Elapsed":          "経過時間",
		"Frame Rate":       "フレームレート",
		"Changes":          "変更",
		"Last Status":      "最終ステータス",
		"Directory":        "ディレクトリ",
		"Segments":         "セグメント数",
		"Fragments":        "フラグメント数",
		"Samples":          "サンプル数",
		"Total Size":       "合計サイズ",
		"Dropped Samples":  "破棄されたサンプル",
		"%d applied, %d rejected": "%d 件適用, %d 件拒否",

		// Error messages
		"expected name=value":                       "name=value の形式で指定してください",
		"URL is required for the screencast source": "スクリーンキャストにはURLが必要です",
		"unknown source":                            "不明なソース",
		"could not open a session":                  "セッションを開けませんでした",
		"at least one file is required":             "ファイルを1つ以上指定してください",
	})
}
