package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/schoolhub/internal/middleware"
	"github.com/hitoshi/schoolhub/internal/model"
	"github.com/hitoshi/schoolhub/internal/school"
)

// SchoolServiceInterface は学校ハンドラーが必要とするサービスインターフェース。
type SchoolServiceInterface interface {
	List(ctx context.Context, query string) ([]*model.School, error)
	Get(ctx context.Context, id int64) (*model.School, error)
	Create(ctx context.Context, sess *model.Session, in school.Input) (*model.School, error)
	Update(ctx context.Context, sess *model.Session, id int64, in school.Input) (*model.School, error)
	Delete(ctx context.Context, sess *model.Session, id int64) error
}

// SchoolHandler は学校情報のHTTPハンドラー。
type SchoolHandler struct {
	service SchoolServiceInterface
}

// NewSchoolHandler はSchoolHandlerを生成する。
func NewSchoolHandler(service SchoolServiceInterface) *SchoolHandler {
	return &SchoolHandler{service: service}
}

// schoolResponse は学校情報のAPIレスポンス。
type schoolResponse struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Contact   string  `json:"contact"`
	Image     *string `json:"image"`
	EmailID   string  `json:"email_id"`
	UserID    *int64  `json:"user_id"`
	CreatedAt string  `json:"created_at"`
}

func toSchoolResponse(s *model.School) schoolResponse {
	return schoolResponse{
		ID:        s.ID,
		Name:      s.Name,
		Address:   s.Address,
		City:      s.City,
		State:     s.State,
		Contact:   s.Contact,
		Image:     s.Image,
		EmailID:   s.EmailID,
		UserID:    s.UserID,
		CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// List は学校一覧を新しい順に返す。
// GET /schools?q=keyword
func (h *SchoolHandler) List(w http.ResponseWriter, r *http.Request) {
	schools, err := h.service.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]schoolResponse, len(schools))
	for i, s := range schools {
		resp[i] = toSchoolResponse(s)
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// Get は学校の詳細を返す。
// GET /schools/{id}
func (h *SchoolHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := schoolID(w, r)
	if !ok {
		return
	}

	s, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, toSchoolResponse(s))
}

// Create は学校を作成する。所有者はログイン中のユーザー。
// POST /schools
func (h *SchoolHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())

	var in school.Input
	if sess != nil && !decodeJSON(w, r, &in) {
		return
	}

	s, err := h.service.Create(r.Context(), sess, in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, toSchoolResponse(s))
}

// Update は学校情報を更新する。所有者のみ実行できる。
// PUT /schools/{id}
func (h *SchoolHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		handleServiceError(w, r, model.NewAuthError("Unauthorized"))
		return
	}

	id, ok := schoolID(w, r)
	if !ok {
		return
	}

	var in school.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	s, err := h.service.Update(r.Context(), sess, id, in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, toSchoolResponse(s))
}

// Delete は学校を削除する。所有者のみ実行できる。
// DELETE /schools/{id}
func (h *SchoolHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		handleServiceError(w, r, model.NewAuthError("Unauthorized"))
		return
	}

	id, ok := schoolID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), sess, id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// schoolID はURLパラメータのIDを解析する。数値でないIDは存在しない学校として404を返す。
func schoolID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewSchoolNotFoundError())
		return 0, false
	}
	return id, true
}
