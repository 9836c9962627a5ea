// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/mtib/aoc-bingo/internal/model"
)

// ErrGameNotFound はメンバー登録の操作時に対象ゲームが存在しなかったことを示す。
// 存在確認と変更は同一トランザクション内で行われるため、
// このエラーはゲームの並行削除に対しても正確である。
var ErrGameNotFound = errors.New("game not found")

// LeaderboardRepository はリーダーボードキャッシュの永続化インターフェース。
type LeaderboardRepository interface {
	// FindByYearAndBoard は(year, boardID)のキャッシュ済みスナップショットを取得する。
	// 見つからない場合はnilを返す。
	FindByYearAndBoard(ctx context.Context, year uint, boardID int64) (*model.LeaderboardSnapshot, error)

	// Upsert は(year, boardID)をキーとする1行を挿入または更新する。
	// dataを置き換え、updated_atを現在時刻に進めた後の行を返す。
	// updated_atは単調非減少である。
	Upsert(ctx context.Context, year uint, boardID int64, data []byte) (*model.LeaderboardSnapshot, error)
}

// GameRepository はゲームとメンバー登録の永続化インターフェース。
type GameRepository interface {
	// InsertGame はゲームを挿入する。ID衝突は検出結果としてconflict=trueで返し、
	// 呼び出し元がドライバ固有のエラーコードを検査する必要はない。
	InsertGame(ctx context.Context, game *model.Game) (created *model.Game, conflict bool, err error)

	// FindGameByID は指定IDのゲームを取得する。見つからない場合はnilを返す。
	FindGameByID(ctx context.Context, id string) (*model.Game, error)

	// CreateMembership はゲームの存在確認とメンバー登録の挿入を
	// 同一トランザクションで実行する。ゲームが存在しない場合はErrGameNotFoundを返す。
	CreateMembership(ctx context.Context, membership *model.Membership) (*model.Membership, error)

	// DeleteMembership はゲームの存在確認とメンバー登録の削除を
	// 同一トランザクションで実行する。ゲームが存在しない場合はErrGameNotFoundを返す。
	// 登録が存在しない場合の削除はエラーにならない（冪等）。
	DeleteMembership(ctx context.Context, gameID string, memberID int64) error

	// ListMembershipsByGame はゲームのメンバー登録一覧をcreated_at昇順で返す。
	// ゲームの存在確認は行わない（サービス層の責務）。
	ListMembershipsByGame(ctx context.Context, gameID string) ([]*model.Membership, error)
}
