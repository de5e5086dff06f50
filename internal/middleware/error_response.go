package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/schoolhub/internal/model"
)

// ErrorResponseBody は全エンドポイント共通のエラーレスポンス。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

func newErrorResponseBody(e *model.APIError) ErrorResponseBody {
	return ErrorResponseBody{
		Code:     e.Code,
		Message:  e.Message,
		Category: e.Category,
		Action:   e.Action,
	}
}

// WriteErrorResponse はAPIErrorを共通フォーマットで書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	WriteJSON(w, statusCode, newErrorResponseBody(apiErr))
}

// WriteInternalServerError は詳細を含まない500レスポンスを書き込む。
// 原因は呼び出し側でログに残すこと。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}

// WriteJSON はvをJSONで書き込む。
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// ヘッダー送信後なのでステータスは変更できない
		slog.Warn("failed to write JSON response", slog.String("error", err.Error()))
	}
}
