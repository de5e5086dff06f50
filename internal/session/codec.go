// Package session はCookieに格納するセッショントークンの符号化と復号を提供する。
//
// Decodeは不正な入力に対してエラーを返さずnil, falseを返す。
// 壊れたCookieは「未認証」として扱われ、リクエストを失敗させることはない。
package session

import (
	"fmt"

	"github.com/hitoshi/schoolhub/internal/model"
)

// Codec はセッションとトークン文字列を相互に変換する。
type Codec interface {
	// Encode はセッションをCookieに格納できる文字列に変換する。
	Encode(s model.Session) (string, error)
	// Decode はトークンを復号する。形式が不正な場合はnil, falseを返す。
	Decode(token string) (*model.Session, bool)
}

// 対応するトークン形式。
const (
	FormatSigned = "signed"
	FormatPlain  = "plain"
)

// Config はNewCodecの設定。
type Config struct {
	Format string
	Secret string
	MaxAge int // 署名付きトークンの有効期間（秒）
	Issuer string
}

// NewCodec は形式名に対応するCodecを生成する。
func NewCodec(cfg Config) (Codec, error) {
	switch cfg.Format {
	case "", FormatSigned:
		return NewSignedCodec(cfg.Secret, cfg.Issuer, secondsToDuration(cfg.MaxAge))
	case FormatPlain:
		return NewPlainCodec(), nil
	default:
		return nil, fmt.Errorf("session: unknown token format %q", cfg.Format)
	}
}

// valid は復号結果として受け入れられるセッションかを判定する。
func valid(s *model.Session) bool {
	return s != nil && s.UserID > 0
}
