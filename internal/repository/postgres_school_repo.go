package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/hitoshi/schoolhub/internal/model"
)

// PostgresSchoolRepo はPostgreSQLを使用した学校リポジトリ。
type PostgresSchoolRepo struct {
	db *sql.DB
}

// NewPostgresSchoolRepo はPostgresSchoolRepoを生成する。
func NewPostgresSchoolRepo(db *sql.DB) *PostgresSchoolRepo {
	return &PostgresSchoolRepo{db: db}
}

const schoolColumns = `id, name, address, city, state, contact, image, email_id, user_id, created_at`

// likeEscaper はLIKEパターンのメタ文字をエスケープする。
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// List は学校一覧を作成日時の降順で返す。
func (r *PostgresSchoolRepo) List(ctx context.Context, query string) ([]*model.School, error) {
	var (
		rows *sql.Rows
		err  error
	)

	query = strings.TrimSpace(query)
	if query == "" {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+schoolColumns+` FROM schools ORDER BY created_at DESC, id DESC`,
		)
	} else {
		pattern := "%" + likeEscaper.Replace(query) + "%"
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+schoolColumns+` FROM schools
			 WHERE name ILIKE $1 OR city ILIKE $1 OR state ILIKE $1 OR address ILIKE $1
			 ORDER BY created_at DESC, id DESC`,
			pattern,
		)
	}
	if err != nil {
		return nil, model.NewStoreError("list schools", err)
	}
	defer rows.Close()

	schools := make([]*model.School, 0)
	for rows.Next() {
		s, err := scanSchool(rows)
		if err != nil {
			return nil, model.NewStoreError("scan school", err)
		}
		schools = append(schools, s)
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewStoreError("iterate schools", err)
	}
	return schools, nil
}

// FindByID は指定IDの学校を取得する。見つからない場合はnilを返す。
func (r *PostgresSchoolRepo) FindByID(ctx context.Context, id int64) (*model.School, error) {
	s, err := scanSchool(r.db.QueryRowContext(ctx,
		`SELECT `+schoolColumns+` FROM schools WHERE id = $1`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewStoreError("find school by id", err)
	}
	return s, nil
}

// Create は学校を作成する。
func (r *PostgresSchoolRepo) Create(ctx context.Context, school *model.School) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO schools (name, address, city, state, contact, image, email_id, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		school.Name, school.Address, school.City, school.State, school.Contact,
		nullString(school.Image), school.EmailID, nullInt64(school.UserID),
	).Scan(&school.ID, &school.CreatedAt)
	if err != nil {
		return model.NewStoreError("insert school", err)
	}
	return nil
}

// Update は所有者と作成日時以外の項目を更新する。
func (r *PostgresSchoolRepo) Update(ctx context.Context, school *model.School) (*model.School, error) {
	updated, err := scanSchool(r.db.QueryRowContext(ctx,
		`UPDATE schools
		 SET name = $1, address = $2, city = $3, state = $4, contact = $5, image = $6, email_id = $7
		 WHERE id = $8
		 RETURNING `+schoolColumns,
		school.Name, school.Address, school.City, school.State, school.Contact,
		nullString(school.Image), school.EmailID, school.ID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewStoreError("update school", err)
	}
	return updated, nil
}

// Delete は指定IDの学校を削除する。
func (r *PostgresSchoolRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM schools WHERE id = $1`, id)
	if err != nil {
		return false, model.NewStoreError("delete school", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, model.NewStoreError("delete school", err)
	}
	return n > 0, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchool(row rowScanner) (*model.School, error) {
	var (
		s      model.School
		image  sql.NullString
		userID sql.NullInt64
	)
	err := row.Scan(&s.ID, &s.Name, &s.Address, &s.City, &s.State, &s.Contact,
		&image, &s.EmailID, &userID, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if image.Valid {
		s.Image = &image.String
	}
	if userID.Valid {
		s.UserID = &userID.Int64
	}
	return &s, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// compile-time interface check
var _ SchoolRepository = (*PostgresSchoolRepo)(nil)
