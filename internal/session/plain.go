package session

import (
	"encoding/base64"
	"encoding/json"

	"github.com/hitoshi/schoolhub/internal/model"
)

// plainPayload はプレーン形式トークンのJSON表現。
// 既存クライアントのCookieと互換のフィールド名を使う。
type plainPayload struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// PlainCodec はJSONをbase64で包むだけのCodec。
// 署名も暗号化もしないため、構文的に正しいトークンはすべて本物として受け入れる。
type PlainCodec struct{}

// NewPlainCodec はPlainCodecを生成する。
func NewPlainCodec() *PlainCodec {
	return &PlainCodec{}
}

// Encode はセッションをbase64(JSON)に変換する。
func (c *PlainCodec) Encode(s model.Session) (string, error) {
	b, err := json.Marshal(plainPayload{UserID: s.UserID, Email: s.Email, Name: s.Name})
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Decode はbase64(JSON)を復号する。
func (c *PlainCodec) Decode(token string) (*model.Session, bool) {
	if token == "" {
		return nil, false
	}
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, false
	}
	var p plainPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	s := &model.Session{UserID: p.UserID, Email: p.Email, Name: p.Name}
	if !valid(s) {
		return nil, false
	}
	return s, true
}

var _ Codec = (*PlainCodec)(nil)
