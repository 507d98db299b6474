// Package security はアプリケーションのセキュリティ機能を提供する。
//
// InputSanitizer はフォームから入力された自由記述テキスト（病院名、県名など）から
// HTMLマークアップを除去する。bluemondayのStrictPolicyを使用し、
// タグを一切通過させない。
package security

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// InputSanitizer は自由記述テキストのサニタイズ機能のインターフェースを定義する。
type InputSanitizer interface {
	// Text はHTMLタグ（script, styleは内容ごと）を除去し、前後の空白を取り除いたテキストを返す。
	// 実体参照は元の文字に戻す。出力時のエスケープはテンプレートが行う。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Text(raw string) string
}

// inputSanitizer はInputSanitizerの実装。
type inputSanitizer struct {
	policy *bluemonday.Policy
}

// NewInputSanitizer はInputSanitizerの新しいインスタンスを生成する。
func NewInputSanitizer() *inputSanitizer {
	return &inputSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Text はHTMLマークアップと制御文字を除去したテキストを返す。
func (s *inputSanitizer) Text(raw string) string {
	if raw == "" {
		return ""
	}
	cleaned := html.UnescapeString(s.policy.Sanitize(raw))
	cleaned = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, cleaned)
	return strings.TrimSpace(cleaned)
}
