// Package security はアプリケーションのセキュリティ機能を提供する。
//
// NameSanitizerService はメンバー表示名をサニタイズする。
// 表示名はリクエストボディおよび上流リーダーボードのJSONという
// 信頼できない入力に由来し、そのままフロントエンドで描画されるため、
// bluemondayの厳格ポリシーで全てのHTMLを除去する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxNameLength はサニタイズ後の表示名の最大文字数。
const maxNameLength = 100

// NameSanitizerService は表示名サニタイズ機能のインターフェースを定義する。
type NameSanitizerService interface {
	// Sanitize は表示名から全てのHTMLタグを除去し、前後の空白を取り除く。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(name string) string
}

// nameSanitizer はNameSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type nameSanitizer struct {
	policy *bluemonday.Policy
}

// NewNameSanitizer はNameSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは全ての要素と属性を除去し、テキストのみを通過させる。
func NewNameSanitizer() *nameSanitizer {
	return &nameSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は表示名から全てのHTMLタグを除去し、前後の空白を取り除く。
func (s *nameSanitizer) Sanitize(name string) string {
	cleaned := strings.TrimSpace(s.policy.Sanitize(name))
	runes := []rune(cleaned)
	if len(runes) > maxNameLength {
		cleaned = string(runes[:maxNameLength])
	}
	return cleaned
}
