package school

import (
	"fmt"
	"strings"

	"github.com/hitoshi/schoolhub/internal/model"
)

// UnownedPolicy は所有者が記録されていない学校に対する変更可否の方針。
type UnownedPolicy string

const (
	// UnownedEditable は認証済みの誰でも所有者なしの学校を変更できる。
	UnownedEditable UnownedPolicy = "editable"
	// UnownedProtected は所有者なしの学校を誰も変更できない。
	UnownedProtected UnownedPolicy = "protected"
)

// ParseUnownedPolicy は設定値からUnownedPolicyを得る。空の場合はUnownedEditable。
func ParseUnownedPolicy(s string) (UnownedPolicy, error) {
	switch p := UnownedPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return UnownedEditable, nil
	case UnownedEditable, UnownedProtected:
		return p, nil
	default:
		return "", fmt.Errorf("school: unknown unowned policy %q", s)
	}
}

// Policy は学校の更新・削除の可否を判定する。
type Policy struct {
	unowned UnownedPolicy
}

// NewPolicy はPolicyを生成する。
func NewPolicy(unowned UnownedPolicy) *Policy {
	if unowned == "" {
		unowned = UnownedEditable
	}
	return &Policy{unowned: unowned}
}

// CanMutate はsessのユーザーがschoolを更新・削除できるかを返す。
// 所有者が記録されている場合は所有者本人のみ許可する。
func (p *Policy) CanMutate(school *model.School, sess *model.Session) bool {
	if school == nil || sess == nil {
		return false
	}
	if !school.HasOwner() {
		return p.unowned == UnownedEditable
	}
	return school.IsOwnedBy(sess.UserID)
}
