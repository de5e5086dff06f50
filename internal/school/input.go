package school

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/schoolhub/internal/model"
	"github.com/hitoshi/schoolhub/internal/security"
)

const msgAllFieldsRequired = "All fields are required"

// maxContactLen はschools.contact（VARCHAR(32)）の上限文字数。
const maxContactLen = 32

// Input は学校の作成・更新の入力値。
type Input struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Contact string `json:"contact"`
	Image   string `json:"image"`
	EmailID string `json:"email_id"`
}

// fieldRule は入力フォームの1項目。
// textはHTMLタグを含んではならない項目、maxLenは0でなければ上限文字数。
type fieldRule struct {
	field    string
	ref      func(*Input) *string
	required bool
	text     bool
	maxLen   int
}

// inputRules は作成・更新で共通の検証ルール表。
var inputRules = []fieldRule{
	{field: "name", ref: func(in *Input) *string { return &in.Name }, required: true, text: true},
	{field: "address", ref: func(in *Input) *string { return &in.Address }, required: true, text: true},
	{field: "city", ref: func(in *Input) *string { return &in.City }, required: true, text: true},
	{field: "state", ref: func(in *Input) *string { return &in.State }, required: true, text: true},
	{field: "contact", ref: func(in *Input) *string { return &in.Contact }, required: true, maxLen: maxContactLen},
	{field: "email_id", ref: func(in *Input) *string { return &in.EmailID }, required: true},
	{field: "image", ref: func(in *Input) *string { return &in.Image }},
}

// normalize は各項目の前後の空白を除去する。
func (in *Input) normalize() {
	for _, r := range inputRules {
		v := r.ref(in)
		*v = strings.TrimSpace(*v)
	}
}

// validate は必須項目を全項目について先に確認し、その後に文字数とタグの有無を表の順に検査する。
// checkerがnilの場合はタグの検査を行わない。
func (in *Input) validate(checker security.MarkupChecker) error {
	for _, r := range inputRules {
		if r.required && *r.ref(in) == "" {
			return model.NewValidationError(msgAllFieldsRequired)
		}
	}
	for _, r := range inputRules {
		v := *r.ref(in)
		if r.maxLen > 0 && utf8.RuneCountInString(v) > r.maxLen {
			return model.NewValidationError(fmt.Sprintf("%s must be at most %d characters", r.field, r.maxLen))
		}
		if r.text && checker != nil && checker.HasMarkup(v) {
			return model.NewValidationError(fmt.Sprintf("%s must not contain HTML tags", r.field))
		}
	}
	return nil
}

// apply は入力値をschoolに反映する。空の画像参照はnullとして保存する。
func (in *Input) apply(s *model.School) {
	s.Name = in.Name
	s.Address = in.Address
	s.City = in.City
	s.State = in.State
	s.Contact = in.Contact
	s.EmailID = in.EmailID
	s.Image = nil
	if in.Image != "" {
		img := in.Image
		s.Image = &img
	}
}
