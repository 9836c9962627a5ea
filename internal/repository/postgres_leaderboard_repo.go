package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mtib/aoc-bingo/internal/model"
)

// PostgresLeaderboardRepo はPostgreSQLを使用したリーダーボードキャッシュリポジトリ。
type PostgresLeaderboardRepo struct {
	db *sql.DB
}

// NewPostgresLeaderboardRepo はPostgresLeaderboardRepoを生成する。
func NewPostgresLeaderboardRepo(db *sql.DB) *PostgresLeaderboardRepo {
	return &PostgresLeaderboardRepo{db: db}
}

// FindByYearAndBoard は(year, boardID)のキャッシュ済みスナップショットを取得する。
// 見つからない場合はnilを返す。
func (r *PostgresLeaderboardRepo) FindByYearAndBoard(ctx context.Context, year uint, boardID int64) (*model.LeaderboardSnapshot, error) {
	snapshot := &model.LeaderboardSnapshot{}
	var data []byte

	err := r.db.QueryRowContext(ctx,
		`SELECT id, year, leaderboard_id, data, created_at, updated_at
		 FROM leaderboard_cache WHERE year = $1 AND leaderboard_id = $2`,
		int64(year), boardID,
	).Scan(&snapshot.ID, &snapshot.Year, &snapshot.BoardID, &data, &snapshot.FetchedAt, &snapshot.RefreshedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("リーダーボードキャッシュの取得に失敗しました: %w", err)
	}

	if err := json.Unmarshal(data, &snapshot.Data); err != nil {
		return nil, fmt.Errorf("キャッシュ済みリーダーボードデータの解析に失敗しました: %w", err)
	}

	return snapshot, nil
}

// Upsert は(year, boardID)をキーとする1行を挿入または更新する。
func (r *PostgresLeaderboardRepo) Upsert(ctx context.Context, year uint, boardID int64, data []byte) (*model.LeaderboardSnapshot, error) {
	snapshot := &model.LeaderboardSnapshot{}
	var stored []byte

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO leaderboard_cache (year, leaderboard_id, data)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (year, leaderboard_id) DO UPDATE SET
		     data = EXCLUDED.data,
		     updated_at = now()
		 RETURNING id, year, leaderboard_id, data, created_at, updated_at`,
		int64(year), boardID, data,
	).Scan(&snapshot.ID, &snapshot.Year, &snapshot.BoardID, &stored, &snapshot.FetchedAt, &snapshot.RefreshedAt)

	if err != nil {
		return nil, fmt.Errorf("リーダーボードキャッシュのUPSERTに失敗しました: %w", err)
	}

	if err := json.Unmarshal(stored, &snapshot.Data); err != nil {
		return nil, fmt.Errorf("保存済みリーダーボードデータの解析に失敗しました: %w", err)
	}

	return snapshot, nil
}

// compile-time interface check
var _ LeaderboardRepository = (*PostgresLeaderboardRepo)(nil)
