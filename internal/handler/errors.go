package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/schoolhub/internal/middleware"
	"github.com/hitoshi/schoolhub/internal/model"
)

// maxBodyBytes はJSONリクエストボディの上限。
const maxBodyBytes = 1 << 20

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
// APIError以外（永続化層の失敗など）は詳細をログにのみ残し、500を返す。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	attrs := []any{
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
	}
	var storeErr *model.StoreError
	if errors.As(err, &storeErr) {
		attrs = append(attrs, slog.String("op", storeErr.Op))
	}
	slog.Error("internal server error", attrs...)
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorのカテゴリからHTTPステータスコードにマッピングする。
// 登録済みメールアドレスの重複は400として返す。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Category {
	case model.CategoryValidation, model.CategoryConflict:
		return http.StatusBadRequest
	case model.CategoryAuth:
		return http.StatusUnauthorized
	case model.CategoryAuthorization:
		return http.StatusForbidden
	case model.CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON はリクエストボディをvにデコードする。失敗時は400を書き込みfalseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return false
	}
	return true
}
