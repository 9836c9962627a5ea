package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/mtib/aoc-bingo/internal/bingo"
	"github.com/mtib/aoc-bingo/internal/model"
)

// BingoServiceInterface はビンゴハンドラーが必要とするサービスインターフェース。
type BingoServiceInterface interface {
	// ComputeOptions はリクエストされた条件で適格なマスを計算する。
	ComputeOptions(ctx context.Context, req bingo.OptionsRequest) ([]model.Square, error)
}

// BingoHandler はゲーム非依存のビンゴ選択肢計算のHTTPハンドラー。
type BingoHandler struct {
	service BingoServiceInterface
}

// NewBingoHandler はBingoHandlerを生成する。
func NewBingoHandler(service BingoServiceInterface) *BingoHandler {
	return &BingoHandler{service: service}
}

// computeOptionsRequest は選択肢計算リクエストのボディ。
// cutoffはUnix秒。省略時はカットオフなしとして扱う。
type computeOptionsRequest struct {
	Years        []uint  `json:"years,omitempty"`
	BoardID      int64   `json:"board_id"`
	SessionToken string  `json:"session_token,omitempty"`
	MemberIDs    []int64 `json:"member_ids,omitempty"`
	Cutoff       int64   `json:"cutoff,omitempty"`
}

// ComputeOptions はアドホックなビンゴ選択肢計算を処理する。
// POST /api/bingo/options
func (h *BingoHandler) ComputeOptions(w http.ResponseWriter, r *http.Request) {
	var req computeOptionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.BoardID <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "board_idは正の整数で指定してください。",
			Category: "validation",
			Action:   "AoCのプライベートリーダーボードIDを確認してください。",
		})
		return
	}

	serviceReq := bingo.OptionsRequest{
		Years:        req.Years,
		BoardID:      req.BoardID,
		SessionToken: req.SessionToken,
		MemberIDs:    req.MemberIDs,
	}
	if req.Cutoff > 0 {
		serviceReq.Cutoff = time.Unix(req.Cutoff, 0)
	}

	squares, err := h.service.ComputeOptions(r.Context(), serviceReq)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(squares)
}
