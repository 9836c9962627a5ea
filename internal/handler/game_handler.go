// Package handler はHTTP APIのルーティングとハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mtib/aoc-bingo/internal/model"
)

// GameServiceInterface はゲームハンドラーが必要とするサービスインターフェース。
type GameServiceInterface interface {
	// CreateGame は新しいゲームを作成する。ID衝突はmaxAttempts回まで再試行される。
	CreateGame(ctx context.Context, leaderboardID int64, sessionToken string, maxAttempts int) (*model.Game, error)
	// GetGame は指定IDのゲームを取得する。
	GetGame(ctx context.Context, id string) (*model.Game, error)
	// ListMemberships はゲームのメンバー登録一覧を返す。
	ListMemberships(ctx context.Context, gameID string) ([]*model.Membership, error)
	// CreateMembership はゲームへのメンバー登録を作成する。
	CreateMembership(ctx context.Context, gameID string, memberID int64, memberName string) (*model.Membership, error)
	// DeleteMembership はゲームからメンバー登録を削除する。
	DeleteMembership(ctx context.Context, gameID string, memberID int64) error
	// PossibleMembers はリーダーボードのメンバー名簿を返す。
	PossibleMembers(ctx context.Context, gameID string) ([]model.LeaderboardMember, error)
	// GameOptions はゲームの設定に基づいてビンゴ選択肢を計算する。
	GameOptions(ctx context.Context, gameID string, years []uint) ([]model.Square, error)
}

// GameHandler はゲーム管理のHTTPハンドラー。
type GameHandler struct {
	service     GameServiceInterface
	maxAttempts int
}

// NewGameHandler はGameHandlerを生成する。
func NewGameHandler(service GameServiceInterface, maxAttempts int) *GameHandler {
	return &GameHandler{
		service:     service,
		maxAttempts: maxAttempts,
	}
}

// createGameRequest はゲーム作成リクエストのボディ。
type createGameRequest struct {
	LeaderboardID int64  `json:"leaderboard_id"`
	SessionToken  string `json:"session_token"`
}

// gameResponse はゲーム情報のAPIレスポンス。
type gameResponse struct {
	ID            string    `json:"id"`
	LeaderboardID int64     `json:"leaderboard_id"`
	SessionToken  string    `json:"session_token"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// createMembershipRequest はメンバー登録リクエストのボディ。
type createMembershipRequest struct {
	MemberID   int64  `json:"member_id"`
	MemberName string `json:"member_name"`
}

// membershipResponse はメンバー登録のAPIレスポンス。
type membershipResponse struct {
	ID         string    `json:"id"`
	GameID     string    `json:"game_id"`
	MemberID   int64     `json:"member_id"`
	MemberName string    `json:"member_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateGame はゲーム作成を処理する。
// POST /api/games
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.LeaderboardID <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "leaderboard_idは正の整数で指定してください。",
			Category: "validation",
			Action:   "AoCのプライベートリーダーボードIDを確認してください。",
		})
		return
	}
	if req.SessionToken == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "session_tokenが空です。",
			Category: "validation",
			Action:   "AoCのセッショントークンを指定してください。",
		})
		return
	}

	game, err := h.service.CreateGame(r.Context(), req.LeaderboardID, req.SessionToken, h.maxAttempts)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toGameResponse(game))
}

// GetGame はゲーム詳細を取得する。
// GET /api/games/{id}
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")

	game, err := h.service.GetGame(r.Context(), gameID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toGameResponse(game))
}

// ListMemberships はゲームのメンバー登録一覧を返す。
// GET /api/games/{id}/memberships
func (h *GameHandler) ListMemberships(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")

	memberships, err := h.service.ListMemberships(r.Context(), gameID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]membershipResponse, len(memberships))
	for i, m := range memberships {
		responses[i] = toMembershipResponse(m)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// CreateMembership はゲームへのメンバー登録を処理する。
// POST /api/games/{id}/memberships
func (h *GameHandler) CreateMembership(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")

	var req createMembershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.MemberID <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "member_idは正の整数で指定してください。",
			Category: "validation",
			Action:   "リーダーボード上のメンバーIDを確認してください。",
		})
		return
	}

	membership, err := h.service.CreateMembership(r.Context(), gameID, req.MemberID, req.MemberName)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toMembershipResponse(membership))
}

// DeleteMembership はメンバー登録の削除を処理する。削除は冪等である。
// DELETE /api/games/{id}/memberships/{memberID}
func (h *GameHandler) DeleteMembership(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")

	memberID, err := strconv.ParseInt(chi.URLParam(r, "memberID"), 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "memberIDは整数で指定してください。",
			Category: "validation",
			Action:   "URLのメンバーIDを確認してください。",
		})
		return
	}

	if err := h.service.DeleteMembership(r.Context(), gameID, memberID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PossibleMembers はリーダーボードのメンバー名簿を返す。
// GET /api/games/{id}/possible-members
func (h *GameHandler) PossibleMembers(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")

	members, err := h.service.PossibleMembers(r.Context(), gameID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(members)
}

// GameOptions はゲーム単位のビンゴ選択肢を返す。
// GET /api/games/{id}/options?years=2023,2024
func (h *GameHandler) GameOptions(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")

	years, err := parseYearsParam(r.URL.Query().Get("years"))
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "yearsパラメータの形式が不正です。",
			Category: "validation",
			Action:   "years=2023,2024 のようにカンマ区切りで指定してください。",
		})
		return
	}

	squares, err := h.service.GameOptions(r.Context(), gameID, years)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(squares)
}

// --- ヘルパー関数 ---

// toGameResponse はmodel.GameからAPIレスポンスに変換する。
func toGameResponse(game *model.Game) gameResponse {
	return gameResponse{
		ID:            game.ID,
		LeaderboardID: game.LeaderboardID,
		SessionToken:  game.SessionToken,
		CreatedAt:     game.CreatedAt,
		UpdatedAt:     game.UpdatedAt,
	}
}

// toMembershipResponse はmodel.MembershipからAPIレスポンスに変換する。
func toMembershipResponse(m *model.Membership) membershipResponse {
	return membershipResponse{
		ID:         m.ID,
		GameID:     m.GameID,
		MemberID:   m.MemberID,
		MemberName: m.MemberName,
		CreatedAt:  m.CreatedAt,
	}
}

// parseYearsParam はカンマ区切りの年リストを解析する。空文字列はnilを返す。
func parseYearsParam(raw string) ([]uint, error) {
	if raw == "" {
		return nil, nil
	}

	var years []uint
	for _, part := range strings.Split(raw, ",") {
		year, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return nil, err
		}
		years = append(years, uint(year))
	}
	return years, nil
}

// writeInvalidRequestBody はリクエストボディ解析失敗の統一レスポンスを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラー（ストレージ障害など）は内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidYear:
		return http.StatusBadRequest
	case model.ErrCodeGameNotFound:
		return http.StatusNotFound
	case model.ErrCodeNoOptions:
		return http.StatusNotFound
	case model.ErrCodeNotCached:
		return http.StatusConflict
	case model.ErrCodeFetchFailed, model.ErrCodeParseFailed, model.ErrCodeLeaderboardUnavailable:
		return http.StatusBadGateway
	case model.ErrCodeIDGenerationExhausted:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
