// Package model はドメインモデルを定義する。
package model

import "time"

// User は登録済みのユーザー（学校情報の所有者になり得る人物）を表す。
// 登録後は変更・削除されない。
type User struct {
	ID           int64
	Name         string
	Email        string
	Phone        string // 10桁の数字
	CountryCode  string // "+91" 等の国番号
	PasswordHash string
	CreatedAt    time.Time
}

// Session はクライアントのCookieに保持される認証済みユーザーのスナップショット。
// 発行後にUserと再照合されることはない。
type Session struct {
	UserID int64
	Email  string
	Name   string
}
