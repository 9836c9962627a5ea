// Package bingo はビンゴマスの適格性判定エンジンを提供する。
//
// 各マス(年・日・パート)について、対象メンバーの回答状況をもとに
// まだビンゴの対象として提示できるかどうかを判定する。
package bingo

import (
	"context"
	"log/slog"
	"time"

	"github.com/mtib/aoc-bingo/internal/aoc"
	"github.com/mtib/aoc-bingo/internal/leaderboard"
	"github.com/mtib/aoc-bingo/internal/model"
)

// LeaderboardProvider はエンジンが必要とするリーダーボードミラーのインターフェース。
type LeaderboardProvider interface {
	GetOrRefreshRange(ctx context.Context, years []uint, boardID int64, sessionToken string) []leaderboard.Result
}

// OptionsRequest はComputeOptionsへの入力をまとめた構造体。
type OptionsRequest struct {
	// Years が空の場合は2015年から現在公開中の最新年までの全範囲。
	Years []uint
	// BoardID は対象のプライベートリーダーボードID。
	BoardID int64
	// SessionToken が空の場合はキャッシュのみで解決する。
	SessionToken string
	// MemberIDs が空でない場合、判定の対象メンバーをこの集合に絞る。
	MemberIDs []int64
	// Cutoff より前の回答は適格性判定で無視される。
	// 通常はゲームの作成時刻を渡す。ゼロ値の場合は全ての回答が対象になる。
	Cutoff time.Time
}

// Service はビンゴ適格性判定のサービス層。
type Service struct {
	boards LeaderboardProvider
	logger *slog.Logger

	// テスト用に現在時刻を差し替え可能
	now func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(boards LeaderboardProvider, logger *slog.Logger) *Service {
	return &Service{
		boards: boards,
		logger: logger,
		now:    time.Now,
	}
}

// ComputeOptions は対象の全年について適格なマスをカレンダー順で返す。
//
// 取得に失敗した年は「データなし」として扱い、その年の全マスが自明に適格となる
// （回答の証拠が存在しないため）。結果が空の場合はNoOptionsを返す。
// これは転送エラーとは区別される意図的なシグナルである。
func (s *Service) ComputeOptions(ctx context.Context, req OptionsRequest) ([]model.Square, error) {
	now := s.now()

	years := req.Years
	if len(years) == 0 {
		for year := aoc.EarliestYear; year <= aoc.LatestYear(now); year++ {
			years = append(years, year)
		}
	}

	// 各年を独立に解決する。失敗した年は警告のみでスキップする。
	snapshots := make(map[uint]*model.LeaderboardData)
	for _, result := range s.boards.GetOrRefreshRange(ctx, years, req.BoardID, req.SessionToken) {
		if result.Err != nil {
			s.logger.Warn("リーダーボードを解決できませんでした。当該年の全マスを適格として扱います",
				slog.Uint64("year", uint64(result.Year)),
				slog.Int64("board_id", req.BoardID),
				slog.String("error", result.Err.Error()),
			)
			continue
		}
		snapshots[result.Year] = result.Snapshot.Data
	}

	var cutoff uint64
	if !req.Cutoff.IsZero() && req.Cutoff.Unix() > 0 {
		cutoff = uint64(req.Cutoff.Unix())
	}

	var options []model.Square
	for _, sq := range aoc.OpenSquares(years, now) {
		data, ok := snapshots[sq.Year]
		if !ok {
			options = append(options, sq)
			continue
		}
		if s.squareEligible(sq, relevantMembers(data, req.MemberIDs), cutoff) {
			options = append(options, sq)
		}
	}

	if len(options) == 0 {
		return nil, model.NewNoOptionsError()
	}
	return options, nil
}

// relevantMembers はスナップショットのメンバーをフィルタに従って絞り込む。
// フィルタが空の場合は全メンバーが対象となる。
func relevantMembers(data *model.LeaderboardData, memberIDs []int64) []model.MemberProgress {
	members := make([]model.MemberProgress, 0, len(data.Members))
	for _, member := range data.Members {
		if len(memberIDs) > 0 && !containsID(memberIDs, member.ID) {
			continue
		}
		members = append(members, member)
	}
	return members
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// squareEligible は1つのマスが適格かどうかを判定する。
//
// 前半: 対象メンバーの誰もcutoff以降に前半を回答していない場合に適格。
// 後半: その年の最終日は常に不適格。それ以外は、
//   - 全員が前半を（時期を問わず）回答済みで、かつ誰もcutoff以降に後半を
//     回答していない（全員で前半を揃えたので後半を出題できる）、または
//   - 誰もcutoff以降にどちらのパートも回答していない（完全に手つかず）
//
// のいずれかが成り立つ場合に適格となる。
func (s *Service) squareEligible(sq model.Square, members []model.MemberProgress, cutoff uint64) bool {
	solvedAtOrAfter := func(star *model.StarInfo) bool {
		return star != nil && star.GetStarTS >= cutoff
	}

	switch sq.Part {
	case model.PartOne:
		for _, member := range members {
			if solvedAtOrAfter(member.Star(sq.Day, model.PartOne)) {
				return false
			}
		}
		return true

	case model.PartTwo:
		size, err := aoc.CalendarSize(sq.Year)
		if err != nil {
			return false
		}
		// 最終日の後半は出題対象から除外する
		if sq.Day == size {
			return false
		}

		everyoneReadyForPartTwo := true
		untouched := true
		for _, member := range members {
			partOne := member.Star(sq.Day, model.PartOne)
			partTwo := member.Star(sq.Day, model.PartTwo)

			if partOne == nil || solvedAtOrAfter(partTwo) {
				everyoneReadyForPartTwo = false
			}
			if solvedAtOrAfter(partOne) || solvedAtOrAfter(partTwo) {
				untouched = false
			}
		}
		return everyoneReadyForPartTwo || untouched
	}

	return false
}
