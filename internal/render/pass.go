// Package render はHTMLページの描画を提供する。
//
// 1回のリクエストの描画を「描画パス」（Pass）として扱い、
// サインアウトボタンのように1パスにつき1度だけ描画すべき要素を管理する。
package render

import "html/template"

// Pass は1回のリクエスト描画の状態。リクエストごとに新しく生成する。
type Pass struct {
	drawn map[string]struct{}
}

// NewPass は描画済みの要素を持たないPassを生成する。
func NewPass() *Pass {
	return &Pass{drawn: make(map[string]struct{})}
}

// Once はlocationごとに1度だけdrawを呼び出し、その結果を返す。
// 同じパスで2回目以降の呼び出しは空文字列を返す。
func (p *Pass) Once(location string, draw func() template.HTML) template.HTML {
	if p.isDrawn(location) {
		return ""
	}
	p.drawn[location] = struct{}{}
	return draw()
}

// isDrawn はlocationが描画済みかを返す。
func (p *Pass) isDrawn(location string) bool {
	_, ok := p.drawn[location]
	return ok
}
