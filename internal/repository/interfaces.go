// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/schoolhub/internal/model"
)

// ErrDuplicate は一意制約違反（既に同じキーが登録済み）を表す。
var ErrDuplicate = errors.New("repository: duplicate key")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成し、採番されたIDと作成日時をuserに設定する。
	// メールアドレスが既に登録されている場合はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error
}

// SchoolRepository は学校データの永続化インターフェース。
type SchoolRepository interface {
	// List は学校一覧を作成日時の降順で返す。
	// queryが空でない場合は名前・市・州・住所のいずれかに部分一致（大文字小文字無視）するものに絞り込む。
	List(ctx context.Context, query string) ([]*model.School, error)

	// FindByID は指定IDの学校を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.School, error)

	// Create は学校を作成し、採番されたIDと作成日時をschoolに設定する。
	Create(ctx context.Context, school *model.School) error

	// Update は所有者以外の項目を上書き更新し、更新後の行を返す。
	// 対象が存在しない場合はnilを返す。
	Update(ctx context.Context, school *model.School) (*model.School, error)

	// Delete は指定IDの学校を削除する。削除した場合はtrueを返す。
	Delete(ctx context.Context, id int64) (bool, error)
}
