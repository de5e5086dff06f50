// Package school は学校情報の一覧・参照・作成・更新・削除と所有権の判定を提供する。
package school

import (
	"context"
	"log/slog"

	"github.com/hitoshi/schoolhub/internal/metrics"
	"github.com/hitoshi/schoolhub/internal/model"
	"github.com/hitoshi/schoolhub/internal/repository"
	"github.com/hitoshi/schoolhub/internal/security"
)

const (
	msgLoginToAdd    = "Unauthorized. Please login to add a school."
	msgUnauthorized  = "Unauthorized"
	msgEditOwnOnly   = "You can only edit your own schools"
	msgDeleteOwnOnly = "You can only delete your own schools"
)

// Service は学校情報のビジネスロジックを提供する。
type Service struct {
	repo    repository.SchoolRepository
	policy  *Policy
	markup  security.MarkupChecker
	metrics metrics.MetricsCollector
}

// NewService はServiceを生成する。collectorがnilの場合はメトリクスを記録しない。
func NewService(
	repo repository.SchoolRepository,
	policy *Policy,
	markup security.MarkupChecker,
	collector metrics.MetricsCollector,
) *Service {
	if policy == nil {
		policy = NewPolicy(UnownedEditable)
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		repo:    repo,
		policy:  policy,
		markup:  markup,
		metrics: collector,
	}
}

// List は学校一覧を新しい順に返す。queryで名前・市・州・住所を絞り込む。
func (s *Service) List(ctx context.Context, query string) ([]*model.School, error) {
	return s.repo.List(ctx, query)
}

// Get は指定IDの学校を返す。存在しない場合はNotFoundエラー。
func (s *Service) Get(ctx context.Context, id int64) (*model.School, error) {
	return s.load(ctx, id)
}

// Create は学校を作成する。所有者はセッションのユーザーになる。
func (s *Service) Create(ctx context.Context, sess *model.Session, in Input) (*model.School, error) {
	if sess == nil {
		return nil, model.NewAuthError(msgLoginToAdd)
	}

	in.normalize()
	if err := in.validate(s.markup); err != nil {
		return nil, err
	}

	school := &model.School{}
	in.apply(school)
	owner := sess.UserID
	school.UserID = &owner

	if err := s.repo.Create(ctx, school); err != nil {
		return nil, err
	}

	s.metrics.RecordSchoolMutation(metrics.SchoolOpCreate)
	slog.Info("school created",
		slog.Int64("school_id", school.ID),
		slog.Int64("user_id", sess.UserID),
	)
	return school, nil
}

// Update は学校情報を更新する。
// 存在確認、所有権の判定、入力検証の順に行い、すべて通過した場合のみ保存する。
func (s *Service) Update(ctx context.Context, sess *model.Session, id int64, in Input) (*model.School, error) {
	if sess == nil {
		return nil, model.NewAuthError(msgUnauthorized)
	}

	school, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanMutate(school, sess) {
		s.deny(metrics.SchoolOpUpdate, school, sess)
		return nil, model.NewAuthorizationError(msgEditOwnOnly)
	}

	in.normalize()
	if err := in.validate(s.markup); err != nil {
		return nil, err
	}
	in.apply(school)

	updated, err := s.repo.Update(ctx, school)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// 読み込み後に削除された
		return nil, model.NewSchoolNotFoundError()
	}

	s.metrics.RecordSchoolMutation(metrics.SchoolOpUpdate)
	slog.Info("school updated",
		slog.Int64("school_id", id),
		slog.Int64("user_id", sess.UserID),
	)
	return updated, nil
}

// Delete は学校を削除する。削除は取り消せない。
func (s *Service) Delete(ctx context.Context, sess *model.Session, id int64) error {
	if sess == nil {
		return model.NewAuthError(msgUnauthorized)
	}

	school, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !s.policy.CanMutate(school, sess) {
		s.deny(metrics.SchoolOpDelete, school, sess)
		return model.NewAuthorizationError(msgDeleteOwnOnly)
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return model.NewSchoolNotFoundError()
	}

	s.metrics.RecordSchoolMutation(metrics.SchoolOpDelete)
	slog.Info("school deleted",
		slog.Int64("school_id", id),
		slog.Int64("user_id", sess.UserID),
	)
	return nil
}

func (s *Service) load(ctx context.Context, id int64) (*model.School, error) {
	if id <= 0 {
		return nil, model.NewSchoolNotFoundError()
	}
	school, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if school == nil {
		return nil, model.NewSchoolNotFoundError()
	}
	return school, nil
}

func (s *Service) deny(op string, school *model.School, sess *model.Session) {
	s.metrics.RecordAccessDenied(op)
	slog.Warn("school mutation denied",
		slog.String("op", op),
		slog.Int64("school_id", school.ID),
		slog.Int64("user_id", sess.UserID),
	)
}
