// Package security はパスワードのダイジェスト計算と入力値のマークアップ検査を提供する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// MarkupChecker はプレーンテキストとして保存する入力値にHTMLタグが含まれるかを判定する。
// 入力値は書き換えない。
type MarkupChecker interface {
	// HasMarkup はsのうちタグとして解釈される部分があればtrueを返す。
	HasMarkup(s string) bool
}

// markupChecker はbluemondayのStrictPolicyで除去される部分の有無で判定する実装。
// Policyはスレッドセーフなので共有してよい。
type markupChecker struct {
	policy *bluemonday.Policy
}

// NewMarkupChecker はMarkupCheckerの新しいインスタンスを生成する。
func NewMarkupChecker() MarkupChecker {
	return &markupChecker{
		policy: bluemonday.StrictPolicy(),
	}
}

// HasMarkup はStrictPolicyを通した結果と入力を比較する。
// StrictPolicyはテキスト中の & や < をエスケープし改行をLFにそろえるため、
// 双方をデコードしてから比べる。
func (c *markupChecker) HasMarkup(s string) bool {
	if s == "" {
		return false
	}
	plain := html.UnescapeString(newlines.Replace(s))
	return html.UnescapeString(c.policy.Sanitize(s)) != plain
}

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")
