package auth

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/schoolhub/internal/model"
	"github.com/hitoshi/schoolhub/internal/security"
)

// DefaultCountryCode は国番号が省略された場合の既定値。
const DefaultCountryCode = "+91"

// 登録・ログイン時のエラーメッセージ
const (
	msgAllFieldsRequired   = "All fields are required"
	msgPhoneDigits         = "Phone number must be exactly 10 digits"
	msgInvalidEmail        = "Invalid email address"
	msgEmailRegistered     = "Email already registered"
	msgCredentialsRequired = "Email and password are required"
)

// usersテーブルの列の上限文字数
const (
	maxNameLen        = 255
	maxEmailLen       = 255
	maxCountryCodeLen = 8
)

var (
	phonePattern = regexp.MustCompile(`^\d{10}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// RegisterInput はユーザー登録の入力値。
type RegisterInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	CountryCode string `json:"country_code"`
	Password    string `json:"password"`
}

// LoginInput はログインの入力値。
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// registerRule は登録フォームの1項目に対する検証ルール。
// maxLenは0でなければ上限文字数、textはHTMLタグを含んではならない項目。
type registerRule struct {
	field    string
	value    func(*RegisterInput) string
	required bool
	maxLen   int
	text     bool
	pattern  *regexp.Regexp
	message  string
}

// registerRules は登録フォームの検証ルール表。
// 必須チェックを全項目について先に行い、その後に文字数・タグ・パターンを表の順に検査する。
var registerRules = []registerRule{
	{field: "name", value: func(in *RegisterInput) string { return in.Name }, required: true, maxLen: maxNameLen, text: true},
	{field: "phone", value: func(in *RegisterInput) string { return in.Phone }, required: true, pattern: phonePattern, message: msgPhoneDigits},
	{field: "email", value: func(in *RegisterInput) string { return in.Email }, required: true, maxLen: maxEmailLen, pattern: emailPattern, message: msgInvalidEmail},
	{field: "password", value: func(in *RegisterInput) string { return in.Password }, required: true},
	{field: "country_code", value: func(in *RegisterInput) string { return in.CountryCode }, maxLen: maxCountryCodeLen},
}

// normalize は前後の空白を除去し、国番号の既定値を補う。パスワードは変更しない。
func (in *RegisterInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.CountryCode = strings.TrimSpace(in.CountryCode)
	if in.CountryCode == "" {
		in.CountryCode = DefaultCountryCode
	}
}

// validate はルール表に従って入力を検証する。最初に見つかった違反を返す。
// checkerがnilの場合はタグの検査を行わない。
func (in *RegisterInput) validate(checker security.MarkupChecker) error {
	for _, r := range registerRules {
		if r.required && r.value(in) == "" {
			return model.NewValidationError(msgAllFieldsRequired)
		}
	}
	for _, r := range registerRules {
		v := r.value(in)
		if r.maxLen > 0 && utf8.RuneCountInString(v) > r.maxLen {
			return model.NewValidationError(fmt.Sprintf("%s must be at most %d characters", r.field, r.maxLen))
		}
		if r.text && checker != nil && checker.HasMarkup(v) {
			return model.NewValidationError(fmt.Sprintf("%s must not contain HTML tags", r.field))
		}
		if r.pattern != nil && !r.pattern.MatchString(v) {
			return model.NewValidationError(r.message)
		}
	}
	return nil
}

func (in *LoginInput) validate() error {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		return model.NewValidationError(msgCredentialsRequired)
	}
	return nil
}
