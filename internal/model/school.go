package model

import "time"

// School は学校情報（リスティング）を表す。
// UserIDがnilの学校は所有者なしとして扱う。
type School struct {
	ID        int64
	Name      string
	Address   string
	City      string
	State     string
	Contact   string
	Image     *string
	EmailID   string
	UserID    *int64
	CreatedAt time.Time
}

// IsOwnedBy は指定ユーザーが所有者かどうかを返す。
func (s *School) IsOwnedBy(userID int64) bool {
	return s.UserID != nil && *s.UserID == userID
}

// HasOwner は所有者が記録されているかどうかを返す。
func (s *School) HasOwner() bool {
	return s.UserID != nil
}
