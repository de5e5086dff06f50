// Package auth はユーザー登録・ログインとセッショントークンの発行を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/schoolhub/internal/metrics"
	"github.com/hitoshi/schoolhub/internal/model"
	"github.com/hitoshi/schoolhub/internal/repository"
	"github.com/hitoshi/schoolhub/internal/security"
	"github.com/hitoshi/schoolhub/internal/session"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// IssuedSession は発行済みのセッショントークン。
type IssuedSession struct {
	Token  string
	MaxAge int // 秒
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	hasher   security.PasswordHasher
	codec    session.Codec
	markup   security.MarkupChecker
	metrics  metrics.MetricsCollector
	config   ServiceConfig
}

// NewService はServiceを生成する。collectorがnilの場合はメトリクスを記録しない。
func NewService(
	userRepo repository.UserRepository,
	hasher security.PasswordHasher,
	codec session.Codec,
	markup security.MarkupChecker,
	collector metrics.MetricsCollector,
	config ServiceConfig,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		codec:    codec,
		markup:   markup,
		metrics:  collector,
		config:   config,
	}
}

// Register はユーザーを登録し、ログイン済みのセッションを発行する。
// メールアドレスが登録済みの場合はConflictErrorを返す。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, *IssuedSession, error) {
	user, issued, err := s.register(ctx, in)
	s.metrics.RecordAuthEvent(metrics.AuthEventRegister, outcomeOf(err))
	return user, issued, err
}

func (s *Service) register(ctx context.Context, in RegisterInput) (*model.User, *IssuedSession, error) {
	in.normalize()
	if err := in.validate(s.markup); err != nil {
		return nil, nil, err
	}

	existing, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, model.NewConflictError(msgEmailRegistered)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		CountryCode:  in.CountryCode,
		PasswordHash: digest,
	}
	// 検索から挿入までの間に同じメールアドレスが登録された場合も重複として扱う
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, model.NewConflictError(msgEmailRegistered)
		}
		return nil, nil, err
	}

	issued, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("user registered",
		slog.Int64("user_id", user.ID),
	)
	return user, issued, nil
}

// Login はメールアドレスとパスワードを検証してセッションを発行する。
// メールアドレス未登録とパスワード不一致は区別せず同じエラーを返す。
func (s *Service) Login(ctx context.Context, in LoginInput) (*model.User, *IssuedSession, error) {
	user, issued, err := s.login(ctx, in)
	s.metrics.RecordAuthEvent(metrics.AuthEventLogin, outcomeOf(err))
	return user, issued, err
}

func (s *Service) login(ctx context.Context, in LoginInput) (*model.User, *IssuedSession, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !s.hasher.Verify(in.Password, user.PasswordHash) {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	issued, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("user logged in", slog.Int64("user_id", user.ID))
	return user, issued, nil
}

// CurrentUser はトークンのユーザーを永続化層から取得し直して返す。
// トークンが不正、ユーザーが存在しない、または取得に失敗した場合はnilを返す。
func (s *Service) CurrentUser(ctx context.Context, token string) *model.User {
	sess := s.SessionFromToken(token)
	if sess == nil {
		return nil
	}

	user, err := s.userRepo.FindByID(ctx, sess.UserID)
	if err != nil {
		slog.Error("failed to load current user",
			slog.Int64("user_id", sess.UserID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return user
}

// SessionFromToken はトークンを復号してセッションを返す。復号できない場合はnilを返す。
func (s *Service) SessionFromToken(token string) *model.Session {
	if token == "" {
		return nil
	}
	sess, ok := s.codec.Decode(token)
	if !ok {
		return nil
	}
	return sess
}

// MaxAge はセッションの有効期間（秒）を返す。
func (s *Service) MaxAge() int {
	return s.config.SessionMaxAge
}

func (s *Service) issue(user *model.User) (*IssuedSession, error) {
	token, err := s.codec.Encode(model.Session{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	return &IssuedSession{Token: token, MaxAge: s.config.SessionMaxAge}, nil
}

func outcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeError
}
