package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/schoolhub/internal/model"
)

// DefaultIssuer は署名付きトークンのissクレーム。
const DefaultIssuer = "schoolhub"

// ErrEmptySecret は署名鍵が設定されていない場合のエラー。
var ErrEmptySecret = errors.New("session: signing secret is empty")

// claims は署名付きトークンのクレーム。
type claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"uid"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// SignedCodec はHS256で署名したJWTをトークンとして使うCodec。
// 改ざん・期限切れ・署名アルゴリズム違いのトークンは復号に失敗する。
type SignedCodec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedCodec はSignedCodecを生成する。ttlが0以下の場合は期限を付けない。
func NewSignedCodec(secret, issuer string, ttl time.Duration) (*SignedCodec, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &SignedCodec{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Encode はセッションを署名付きJWTに変換する。
func (c *SignedCodec) Encode(s model.Session) (string, error) {
	now := c.now()
	rc := jwt.RegisteredClaims{
		Issuer:   c.issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if c.ttl > 0 {
		rc.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: rc,
		UserID:           s.UserID,
		Email:            s.Email,
		Name:             s.Name,
	})
	return token.SignedString(c.secret)
}

// Decode は署名と期限を検証してセッションを取り出す。
func (c *SignedCodec) Decode(token string) (*model.Session, bool) {
	if token == "" {
		return nil, false
	}

	cl := &claims{}
	parsed, err := jwt.ParseWithClaims(token, cl, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return nil, false
	}

	s := &model.Session{UserID: cl.UserID, Email: cl.Email, Name: cl.Name}
	if !valid(s) {
		return nil, false
	}
	return s, true
}

func secondsToDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}

var _ Codec = (*SignedCodec)(nil)
