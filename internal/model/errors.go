// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, game, leaderboard, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidYear            = "INVALID_YEAR"
	ErrCodeNotCached              = "LEADERBOARD_NOT_CACHED"
	ErrCodeFetchFailed            = "FETCH_FAILED"
	ErrCodeParseFailed            = "PARSE_FAILED"
	ErrCodeGameNotFound           = "GAME_NOT_FOUND"
	ErrCodeIDGenerationExhausted  = "ID_GENERATION_EXHAUSTED"
	ErrCodeNoOptions              = "NO_OPTIONS"
	ErrCodeLeaderboardUnavailable = "LEADERBOARD_UNAVAILABLE"
)

// NewInvalidYearError は対象範囲外の年が指定された場合のエラーを生成する。
func NewInvalidYearError(year uint) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidYear,
		Message:  fmt.Sprintf("無効な年です: %d（2015年以降を指定してください）", year),
		Category: "validation",
		Action:   "2015年以降の年を指定してください。",
	}
}

// NewNotCachedError はキャッシュ未保持かつセッショントークン未指定の場合のエラーを生成する。
func NewNotCachedError(year uint, boardID int64) *APIError {
	return &APIError{
		Code:     ErrCodeNotCached,
		Message:  fmt.Sprintf("リーダーボードがキャッシュされておらず、セッショントークンも指定されていません: year=%d board=%d", year, boardID),
		Category: "leaderboard",
		Action:   "有効なセッショントークンを指定してください。",
	}
}

// NewFetchFailedError は上流リーダーボードの取得失敗エラーを生成する。
func NewFetchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeFetchFailed,
		Message:  fmt.Sprintf("リーダーボードの取得に失敗しました: %s", reason),
		Category: "leaderboard",
		Action:   "しばらく待ってから再度お試しください。セッショントークンの有効期限も確認してください。",
	}
}

// NewParseFailedError は上流レスポンスの解析失敗エラーを生成する。
func NewParseFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeParseFailed,
		Message:  "リーダーボードデータの解析に失敗しました。",
		Category: "leaderboard",
		Action:   "セッショントークンが有効かどうか確認してください。",
	}
}

// NewGameNotFoundError はゲームが見つからない場合のエラーを生成する。
func NewGameNotFoundError(gameID string) *APIError {
	return &APIError{
		Code:     ErrCodeGameNotFound,
		Message:  fmt.Sprintf("指定されたゲームが見つかりません: %s", gameID),
		Category: "game",
		Action:   "ゲームIDを確認してください。",
	}
}

// NewIDGenerationExhaustedError はゲームID生成の試行回数が尽きた場合のエラーを生成する。
func NewIDGenerationExhaustedError(attempts int) *APIError {
	return &APIError{
		Code:     ErrCodeIDGenerationExhausted,
		Message:  fmt.Sprintf("一意なゲームIDの生成に%d回失敗しました。", attempts),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewNoOptionsError は選択可能なビンゴマスが1つも残っていない場合のエラーを生成する。
// 空の成功レスポンスとは区別される意図的なシグナルである。
func NewNoOptionsError() *APIError {
	return &APIError{
		Code:     ErrCodeNoOptions,
		Message:  "選択可能なビンゴマスが残っていません。",
		Category: "game",
		Action:   "対象の年やメンバーの条件を変更してお試しください。",
	}
}

// NewLeaderboardUnavailableError はどの年のリーダーボードも解決できなかった場合のエラーを生成する。
func NewLeaderboardUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeLeaderboardUnavailable,
		Message:  "リーダーボードを取得できませんでした。",
		Category: "leaderboard",
		Action:   "セッショントークンとリーダーボードIDを確認してください。",
	}
}
