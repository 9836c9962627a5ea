package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/mtib/aoc-bingo/internal/model"
)

// PostgresGameRepo はPostgreSQLを使用したゲームリポジトリ。
type PostgresGameRepo struct {
	db *sql.DB
}

// NewPostgresGameRepo はPostgresGameRepoを生成する。
func NewPostgresGameRepo(db *sql.DB) *PostgresGameRepo {
	return &PostgresGameRepo{db: db}
}

// InsertGame はゲームを挿入する。
// 主キー衝突はconflict=trueとして返し、その他のエラーはそのまま返す。
func (r *PostgresGameRepo) InsertGame(ctx context.Context, game *model.Game) (*model.Game, bool, error) {
	created := &model.Game{}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO games (id, leaderboard_id, session_token)
		 VALUES ($1, $2, $3)
		 RETURNING id, leaderboard_id, session_token, created_at, updated_at`,
		game.ID, game.LeaderboardID, game.SessionToken,
	).Scan(&created.ID, &created.LeaderboardID, &created.SessionToken, &created.CreatedAt, &created.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("ゲームの作成に失敗しました: %w", err)
	}

	return created, false, nil
}

// FindGameByID は指定IDのゲームを取得する。見つからない場合はnilを返す。
func (r *PostgresGameRepo) FindGameByID(ctx context.Context, id string) (*model.Game, error) {
	game := &model.Game{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, leaderboard_id, session_token, created_at, updated_at
		 FROM games WHERE id = $1`,
		id,
	).Scan(&game.ID, &game.LeaderboardID, &game.SessionToken, &game.CreatedAt, &game.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ゲームの取得に失敗しました: %w", err)
	}

	return game, nil
}

// CreateMembership はゲームの存在確認とメンバー登録の挿入を同一トランザクションで実行する。
// ゲーム行をFOR KEY SHAREでロックするため、並行するゲーム削除との競合は発生しない。
func (r *PostgresGameRepo) CreateMembership(ctx context.Context, membership *model.Membership) (*model.Membership, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if err := lockGame(ctx, tx, membership.GameID); err != nil {
		return nil, err
	}

	created := &model.Membership{}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO game_memberships (id, game_id, member_id, member_name)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, game_id, member_id, member_name, created_at`,
		membership.ID, membership.GameID, membership.MemberID, membership.MemberName,
	).Scan(&created.ID, &created.GameID, &created.MemberID, &created.MemberName, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("メンバー登録の作成に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return created, nil
}

// DeleteMembership はゲームの存在確認とメンバー登録の削除を同一トランザクションで実行する。
// 登録が存在しない場合の削除は冪等に成功する。
func (r *PostgresGameRepo) DeleteMembership(ctx context.Context, gameID string, memberID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if err := lockGame(ctx, tx, gameID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM game_memberships WHERE game_id = $1 AND member_id = $2`,
		gameID, memberID,
	)
	if err != nil {
		return fmt.Errorf("メンバー登録の削除に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return nil
}

// ListMembershipsByGame はゲームのメンバー登録一覧をcreated_at昇順で返す。
func (r *PostgresGameRepo) ListMembershipsByGame(ctx context.Context, gameID string) ([]*model.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, game_id, member_id, member_name, created_at
		 FROM game_memberships WHERE game_id = $1 ORDER BY created_at ASC`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("メンバー登録一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var memberships []*model.Membership
	for rows.Next() {
		m := &model.Membership{}
		if err := rows.Scan(&m.ID, &m.GameID, &m.MemberID, &m.MemberName, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("メンバー登録行の読み取りに失敗しました: %w", err)
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("メンバー登録一覧の走査に失敗しました: %w", err)
	}
	return memberships, nil
}

// lockGame はトランザクション内でゲーム行の存在を確認し、KEY SHAREロックを取得する。
// ゲームが存在しない場合はErrGameNotFoundを返す。
func lockGame(ctx context.Context, tx *sql.Tx, gameID string) error {
	var id string
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM games WHERE id = $1 FOR KEY SHARE`,
		gameID,
	).Scan(&id)

	if err == sql.ErrNoRows {
		return ErrGameNotFound
	}
	if err != nil {
		return fmt.Errorf("ゲームの存在確認に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ GameRepository = (*PostgresGameRepo)(nil)
