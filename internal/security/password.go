package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrMissingSecret はプロセス共通の秘密値が設定されていない場合のエラー。
// 起動を継続できない設定エラーとして扱う。
var ErrMissingSecret = errors.New("security: password secret is not configured")

// PasswordHasher はパスワードの一方向ダイジェストを計算・検証する。
type PasswordHasher interface {
	// Hash は平文パスワードから保存用ダイジェストを計算する。
	Hash(plaintext string) (string, error)
	// Verify は平文パスワードが保存済みダイジェストと一致するかを返す。
	Verify(plaintext, digest string) bool
}

// Argon2Params はargon2idのコストパラメータ。
type Argon2Params struct {
	Memory  uint32 // KiB
	Time    uint32
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultArgon2Params は対話的ログイン向けの既定値を返す。
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:  64 * 1024,
		Time:    1,
		Threads: 4,
		SaltLen: 16,
		KeyLen:  32,
	}
}

// Argon2Hasher はHMAC-SHA256で秘密値を混ぜた入力に
// ユーザーごとのソルト付きargon2idを適用するPasswordHasher。
// 旧形式（SHA-256の16進文字列）のダイジェストも検証できる。
type Argon2Hasher struct {
	secret []byte
	params Argon2Params
	legacy *SHA256Hasher
}

// NewArgon2Hasher はArgon2Hasherを生成する。secretが空の場合はErrMissingSecretを返す。
func NewArgon2Hasher(secret string, params Argon2Params) (*Argon2Hasher, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	legacy, err := NewSHA256Hasher(secret)
	if err != nil {
		return nil, err
	}
	return &Argon2Hasher{
		secret: []byte(secret),
		params: params,
		legacy: legacy,
	}, nil
}

// Hash はargon2idダイジェストを
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key> 形式で返す。
func (h *Argon2Hasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey(h.pepper(plaintext), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify はダイジェストの形式を判別して検証する。
// 旧形式のダイジェストはSHA256Hasherに委譲する。
func (h *Argon2Hasher) Verify(plaintext, digest string) bool {
	if isLegacyDigest(digest) {
		return h.legacy.Verify(plaintext, digest)
	}

	params, salt, key, err := decodeArgon2Digest(digest)
	if err != nil {
		return false
	}

	other := argon2.IDKey(h.pepper(plaintext), salt, params.Time, params.Memory, params.Threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, other) == 1
}

// pepper はプロセス共通の秘密値をHMACで平文に結合する。
func (h *Argon2Hasher) pepper(plaintext string) []byte {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(plaintext))
	return mac.Sum(nil)
}

func decodeArgon2Digest(digest string) (Argon2Params, []byte, []byte, error) {
	var params Argon2Params

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return params, nil, nil, errors.New("invalid argon2id digest format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params, nil, nil, fmt.Errorf("invalid argon2id version: %w", err)
	}
	if version != argon2.Version {
		return params, nil, nil, fmt.Errorf("unsupported argon2id version %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Time, &params.Threads); err != nil {
		return params, nil, nil, fmt.Errorf("invalid argon2id parameters: %w", err)
	}
	if params.Memory == 0 || params.Time == 0 || params.Threads == 0 {
		return params, nil, nil, errors.New("argon2id parameters must be positive")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, fmt.Errorf("invalid argon2id salt: %w", err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return params, nil, nil, errors.New("invalid argon2id key")
	}

	return params, salt, key, nil
}

// SHA256Hasher は平文と秘密値を連結してSHA-256を1回適用する旧方式のPasswordHasher。
// ソルトを使わないため、同じパスワードは常に同じダイジェストになる。
// 既存データとの互換のためにのみ残している。
type SHA256Hasher struct {
	secret string
}

// NewSHA256Hasher はSHA256Hasherを生成する。secretが空の場合はErrMissingSecretを返す。
func NewSHA256Hasher(secret string) (*SHA256Hasher, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &SHA256Hasher{secret: secret}, nil
}

// Hash は64文字の小文字16進ダイジェストを返す。
func (h *SHA256Hasher) Hash(plaintext string) (string, error) {
	sum := sha256.Sum256([]byte(plaintext + h.secret))
	return hex.EncodeToString(sum[:]), nil
}

// Verify はダイジェストを再計算して比較する。
func (h *SHA256Hasher) Verify(plaintext, digest string) bool {
	want, _ := h.Hash(plaintext)
	return subtle.ConstantTimeCompare([]byte(want), []byte(digest)) == 1
}

// isLegacyDigest はSHA256Hasher形式（64文字の小文字16進）かどうかを判定する。
func isLegacyDigest(digest string) bool {
	if len(digest) != sha256.Size*2 {
		return false
	}
	for _, c := range digest {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

// NewPasswordHasher は方式名に対応するPasswordHasherを生成する。
// 方式名は "argon2id" または "sha256"。
func NewPasswordHasher(scheme, secret string) (PasswordHasher, error) {
	switch scheme {
	case "", "argon2id":
		return NewArgon2Hasher(secret, DefaultArgon2Params())
	case "sha256":
		return NewSHA256Hasher(secret)
	default:
		return nil, fmt.Errorf("security: unknown password scheme %q", scheme)
	}
}

// compile-time interface check
var _ PasswordHasher = (*Argon2Hasher)(nil)
var _ PasswordHasher = (*SHA256Hasher)(nil)
