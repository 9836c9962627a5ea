// Package game はゲームとメンバー登録のドメインロジックを提供する。
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"

	"github.com/google/uuid"

	"github.com/mtib/aoc-bingo/internal/bingo"
	"github.com/mtib/aoc-bingo/internal/leaderboard"
	"github.com/mtib/aoc-bingo/internal/model"
	"github.com/mtib/aoc-bingo/internal/repository"
)

const (
	// idLength はゲームIDの文字数。36^8の空間で衝突は稀だが起こり得る。
	idLength = 8
	// idAlphabet はゲームIDに使用する文字集合。
	idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

	// DefaultMaxAttempts はID衝突時のデフォルト再試行回数。
	DefaultMaxAttempts = 10
)

// BoardResolver はゲームサービスが必要とするリーダーボードミラーのインターフェース。
type BoardResolver interface {
	GetOrRefreshAll(ctx context.Context, boardID int64, sessionToken string) []leaderboard.Result
}

// OptionsComputer はビンゴ適格性判定エンジンのインターフェース。
type OptionsComputer interface {
	ComputeOptions(ctx context.Context, req bingo.OptionsRequest) ([]model.Square, error)
}

// NameSanitizer はメンバー表示名のサニタイズインターフェース。
type NameSanitizer interface {
	Sanitize(name string) string
}

// Service はゲーム管理のサービス層。
// ゲームIDの衝突安全な払い出し、メンバー登録のライフサイクル、
// 招待候補の取得、ゲーム単位のビンゴ選択肢の計算を提供する。
type Service struct {
	repo      repository.GameRepository
	boards    BoardResolver
	options   OptionsComputer
	sanitizer NameSanitizer
	logger    *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.GameRepository,
	boards BoardResolver,
	options OptionsComputer,
	sanitizer NameSanitizer,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		boards:    boards,
		options:   options,
		sanitizer: sanitizer,
		logger:    logger,
	}
}

// generateGameID は8文字の英小文字・数字のIDを一様ランダムに生成する。
func generateGameID() string {
	id := make([]byte, idLength)
	for i := range id {
		id[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return string(id)
}

// CreateGame は新しいゲームを作成する。
// ID衝突時は新しいIDで最大maxAttempts回まで再試行する。
// 衝突以外の永続化エラーは再試行せず即座に中断する。
func (s *Service) CreateGame(ctx context.Context, leaderboardID int64, sessionToken string, maxAttempts int) (*model.Game, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		game := &model.Game{
			ID:            generateGameID(),
			LeaderboardID: leaderboardID,
			SessionToken:  sessionToken,
		}

		created, conflict, err := s.repo.InsertGame(ctx, game)
		if err != nil {
			return nil, fmt.Errorf("ゲームの作成に失敗しました: %w", err)
		}
		if conflict {
			s.logger.Warn("ゲームIDが衝突したため再試行します",
				slog.String("game_id", game.ID),
				slog.Int("attempt", attempt+1),
			)
			continue
		}
		return created, nil
	}

	return nil, model.NewIDGenerationExhaustedError(maxAttempts)
}

// GetGame は指定IDのゲームを取得する。
func (s *Service) GetGame(ctx context.Context, id string) (*model.Game, error) {
	game, err := s.repo.FindGameByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ゲームの取得に失敗しました: %w", err)
	}
	if game == nil {
		return nil, model.NewGameNotFoundError(id)
	}
	return game, nil
}

// CreateMembership はゲームへのメンバー登録を作成する。
// ゲームの存在確認と挿入は単一トランザクションで実行されるため、
// 並行するゲーム削除との競合で孤児レコードが生まれることはない。
func (s *Service) CreateMembership(ctx context.Context, gameID string, memberID int64, memberName string) (*model.Membership, error) {
	membership := &model.Membership{
		ID:         uuid.NewString(),
		GameID:     gameID,
		MemberID:   memberID,
		MemberName: s.sanitizer.Sanitize(memberName),
	}

	created, err := s.repo.CreateMembership(ctx, membership)
	if err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			return nil, model.NewGameNotFoundError(gameID)
		}
		return nil, fmt.Errorf("メンバー登録の作成に失敗しました: %w", err)
	}
	return created, nil
}

// DeleteMembership はゲームからメンバー登録を削除する。
// 存在しない登録の削除はエラーにならないが、
// 存在しないゲームに対する削除はGameNotFoundで失敗する。
func (s *Service) DeleteMembership(ctx context.Context, gameID string, memberID int64) error {
	if err := s.repo.DeleteMembership(ctx, gameID, memberID); err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			return model.NewGameNotFoundError(gameID)
		}
		return fmt.Errorf("メンバー登録の削除に失敗しました: %w", err)
	}
	return nil
}

// ListMemberships はゲームのメンバー登録一覧をcreated_at昇順で返す。
// ゲームが存在しない場合はGameNotFoundで失敗する。
func (s *Service) ListMemberships(ctx context.Context, gameID string) ([]*model.Membership, error) {
	if _, err := s.GetGame(ctx, gameID); err != nil {
		return nil, err
	}

	memberships, err := s.repo.ListMembershipsByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("メンバー登録一覧の取得に失敗しました: %w", err)
	}
	return memberships, nil
}

// PossibleMembers はゲームのリーダーボードに載っているメンバー名簿を返す。
// 実際の登録状況とは無関係で、招待候補の一覧表示に使用する。
// 全年のうち最初に解決できたスナップショットの名簿をメンバーID昇順で返す。
func (s *Service) PossibleMembers(ctx context.Context, gameID string) ([]model.LeaderboardMember, error) {
	game, err := s.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	results := s.boards.GetOrRefreshAll(ctx, game.LeaderboardID, game.SessionToken)
	for _, result := range results {
		if result.Err != nil || result.Snapshot == nil {
			continue
		}

		members := make([]model.LeaderboardMember, 0, len(result.Snapshot.Data.Members))
		for _, member := range result.Snapshot.Data.Members {
			members = append(members, model.LeaderboardMember{
				ID:   member.ID,
				Name: s.sanitizer.Sanitize(member.Name),
			})
		}
		sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
		return members, nil
	}

	return nil, model.NewLeaderboardUnavailableError()
}

// GameOptions はゲームの設定に基づいてビンゴ選択肢を計算する。
// 対象メンバーは登録済みメンバー（未登録の場合は全メンバー）、
// cutoffはゲームの作成時刻となる。
func (s *Service) GameOptions(ctx context.Context, gameID string, years []uint) ([]model.Square, error) {
	game, err := s.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	memberships, err := s.repo.ListMembershipsByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("メンバー登録一覧の取得に失敗しました: %w", err)
	}

	var memberIDs []int64
	for _, m := range memberships {
		memberIDs = append(memberIDs, m.MemberID)
	}

	return s.options.ComputeOptions(ctx, bingo.OptionsRequest{
		Years:        years,
		BoardID:      game.LeaderboardID,
		SessionToken: game.SessionToken,
		MemberIDs:    memberIDs,
		Cutoff:       game.CreatedAt,
	})
}
