// Package leaderboard はリーダーボードのキャッシュスルーミラーを提供する。
//
// 上流のAdvent of Codeリーダーボードは不安定かつレート制限があるため、
// スナップショットをローカルに永続化し、TTL内はキャッシュを返す。
// セッショントークンがない場合は古いキャッシュでも返す
// （利用不能よりは古いデータの方が望ましい）。
package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mtib/aoc-bingo/internal/aoc"
	"github.com/mtib/aoc-bingo/internal/metrics"
	"github.com/mtib/aoc-bingo/internal/model"
	"github.com/mtib/aoc-bingo/internal/repository"
)

// DefaultTTL はキャッシュ済みスナップショットを再取得なしで返す最大経過時間。
// イベント期間中は上流データが頻繁に変わるため短めに設定している。
const DefaultTTL = 15 * time.Minute

// Fetcher は上流リーダーボードの取得インターフェース。
type Fetcher interface {
	// FetchLeaderboard はスナップショットの生JSONを取得する。
	FetchLeaderboard(ctx context.Context, year uint, boardID int64, sessionToken string) ([]byte, error)
}

// Result は1年分の取得結果を表す。複数年の取得では各年が独立した結果を持ち、
// ある年の失敗が他の年を中断させることはない。
type Result struct {
	Year     uint
	Snapshot *model.LeaderboardSnapshot
	Err      error
}

// Service はリーダーボードミラーのサービス層。
// キャッシュ参照、TTL判定、上流からの再取得とUPSERT永続化を行う。
type Service struct {
	repo    repository.LeaderboardRepository
	client  Fetcher
	metrics metrics.MetricsCollector
	logger  *slog.Logger
	ttl     time.Duration

	// 同一(year, boardID)への同時コールドフェッチを1回の上流呼び出しに束ねる
	group singleflight.Group

	// テスト用に現在時刻を差し替え可能
	now func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// ttlが0以下の場合はDefaultTTLを使用する。
func NewService(
	repo repository.LeaderboardRepository,
	client Fetcher,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	ttl time.Duration,
) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		repo:    repo,
		client:  client,
		metrics: collector,
		logger:  logger,
		ttl:     ttl,
		now:     time.Now,
	}
}

// GetOrRefresh は(year, boardID)のスナップショットを返す。
//
// キャッシュ済みの行が存在し、TTL内であるかセッショントークンが未指定の場合は
// キャッシュを返す。トークンなしでは再取得できないため、古いキャッシュでも
// 失敗よりは優先される。キャッシュがなくトークンもない場合はNotCachedを返す。
// それ以外は上流から取得してUPSERTし、新しいスナップショットを返す。
// 取得・解析の失敗は既存のキャッシュ行を壊さない。
func (s *Service) GetOrRefresh(ctx context.Context, year uint, boardID int64, sessionToken string) (*model.LeaderboardSnapshot, error) {
	// キャッシュ参照。プールされた接続は上流への往復の前に返却される。
	cached, err := s.repo.FindByYearAndBoard(ctx, year, boardID)
	if err != nil {
		return nil, fmt.Errorf("リーダーボードキャッシュの参照に失敗しました: %w", err)
	}

	if cached != nil {
		age := s.now().Sub(cached.RefreshedAt)
		if age < s.ttl || sessionToken == "" {
			s.metrics.RecordCacheHit()
			s.logger.Info("キャッシュ済みリーダーボードを使用します",
				slog.Uint64("year", uint64(year)),
				slog.Int64("board_id", boardID),
				slog.Int64("age_seconds", int64(age.Seconds())),
			)
			return cached, nil
		}
	}

	if sessionToken == "" {
		return nil, model.NewNotCachedError(year, boardID)
	}

	s.metrics.RecordCacheMiss()

	// 同一キーへの同時フェッチを1回にまとめる
	key := fmt.Sprintf("%d/%d", year, boardID)
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.fetchAndStore(ctx, year, boardID, sessionToken)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.LeaderboardSnapshot), nil
}

// fetchAndStore は上流からスナップショットを取得してUPSERTする。
func (s *Service) fetchAndStore(ctx context.Context, year uint, boardID int64, sessionToken string) (*model.LeaderboardSnapshot, error) {
	s.logger.Info("上流からリーダーボードを取得します",
		slog.Uint64("year", uint64(year)),
		slog.Int64("board_id", boardID),
	)

	start := s.now()
	body, err := s.client.FetchLeaderboard(ctx, year, boardID, sessionToken)
	s.metrics.RecordFetchLatency(time.Since(start))
	if err != nil {
		s.metrics.RecordFetchFailure()
		return nil, model.NewFetchFailedError(err.Error())
	}
	s.metrics.RecordFetchSuccess()

	// 保存前に解析し、ログインページ等の不正なペイロードを弾く
	var data model.LeaderboardData
	if err := json.Unmarshal(body, &data); err != nil {
		s.metrics.RecordParseFailure()
		s.logger.Error("リーダーボードデータの解析に失敗しました",
			slog.Uint64("year", uint64(year)),
			slog.Int64("board_id", boardID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewParseFailedError()
	}

	snapshot, err := s.repo.Upsert(ctx, year, boardID, body)
	if err != nil {
		return nil, fmt.Errorf("リーダーボードキャッシュの保存に失敗しました: %w", err)
	}
	return snapshot, nil
}

// GetOrRefreshRange は複数年を順に解決する。各年の結果は独立しており、
// ある年の失敗が他の年の解決を中断させることはない。
func (s *Service) GetOrRefreshRange(ctx context.Context, years []uint, boardID int64, sessionToken string) []Result {
	results := make([]Result, 0, len(years))
	for _, year := range years {
		snapshot, err := s.GetOrRefresh(ctx, year, boardID, sessionToken)
		results = append(results, Result{Year: year, Snapshot: snapshot, Err: err})
	}
	return results
}

// GetOrRefreshAll は最初の年から現在公開中の最新年までの全範囲を解決する。
func (s *Service) GetOrRefreshAll(ctx context.Context, boardID int64, sessionToken string) []Result {
	var years []uint
	for year := aoc.EarliestYear; year <= aoc.LatestYear(s.now()); year++ {
		years = append(years, year)
	}
	return s.GetOrRefreshRange(ctx, years, boardID, sessionToken)
}
