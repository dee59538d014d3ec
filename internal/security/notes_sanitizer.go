// Package security はアプリケーションのセキュリティ機能を提供する。
//
// NotesSanitizer は書籍・利用者・貸出の備考欄など、外部入力の
// 自由記述テキストをサニタイズする。備考欄はプレーンテキストとして
// 扱うため、bluemondayの許可リストベースのポリシーで
// HTMLタグをすべて除去する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// NotesSanitizerService は自由記述テキストのサニタイズ機能の
// インターフェースを定義する。登録系操作の保存前に使用される。
type NotesSanitizerService interface {
	// Sanitize は入力からHTMLタグをすべて除去し、前後の空白を
	// 取り除いたプレーンテキストを返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// notesSanitizer はNotesSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type notesSanitizer struct {
	policy *bluemonday.Policy
}

// NewNotesSanitizer はNotesSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicy（全タグ除去）を使用する。備考欄に書式は不要で、
// scriptタグ等の混入を許す理由がないため。
func NewNotesSanitizer() *notesSanitizer {
	return &notesSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力からHTMLタグをすべて除去したプレーンテキストを返す。
func (s *notesSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(s.policy.Sanitize(raw))
}

// compile-time interface check
var _ NotesSanitizerService = (*notesSanitizer)(nil)
