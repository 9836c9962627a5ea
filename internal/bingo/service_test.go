package bingo

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/mtib/aoc-bingo/internal/leaderboard"
	"github.com/mtib/aoc-bingo/internal/model"
)

// --- モック ---

type mockProvider struct {
	rangeFn func(ctx context.Context, years []uint, boardID int64, sessionToken string) []leaderboard.Result
}

func (m *mockProvider) GetOrRefreshRange(ctx context.Context, years []uint, boardID int64, sessionToken string) []leaderboard.Result {
	return m.rangeFn(ctx, years, boardID, sessionToken)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

// solve はメンバーの進捗に1つの回答記録を追加する。
func solve(m *model.MemberProgress, day uint, part model.Part, ts uint64) {
	if m.CompletionDayLevel == nil {
		m.CompletionDayLevel = make(map[string]map[string]model.StarInfo)
	}
	dayKey := strconv.FormatUint(uint64(day), 10)
	if m.CompletionDayLevel[dayKey] == nil {
		m.CompletionDayLevel[dayKey] = make(map[string]model.StarInfo)
	}
	m.CompletionDayLevel[dayKey][strconv.FormatUint(uint64(part), 10)] = model.StarInfo{GetStarTS: ts}
}

// boardWith はメンバー進捗からスナップショットデータを組み立てる。
func boardWith(members ...model.MemberProgress) *model.LeaderboardData {
	data := &model.LeaderboardData{
		Event:   "2023",
		Members: make(map[string]model.MemberProgress),
	}
	for _, m := range members {
		data.Members[strconv.FormatInt(m.ID, 10)] = m
	}
	return data
}

// singleYearProvider は指定した年のスナップショットのみを返すプロバイダ。
func singleYearProvider(year uint, data *model.LeaderboardData) *mockProvider {
	return &mockProvider{
		rangeFn: func(ctx context.Context, years []uint, boardID int64, token string) []leaderboard.Result {
			results := make([]leaderboard.Result, 0, len(years))
			for _, y := range years {
				if y == year {
					results = append(results, leaderboard.Result{
						Year:     y,
						Snapshot: &model.LeaderboardSnapshot{Year: y, BoardID: boardID, Data: data},
					})
					continue
				}
				results = append(results, leaderboard.Result{Year: y, Err: errors.New("not available")})
			}
			return results
		},
	}
}

// 2023年12月25日時点: 2023年は全25日公開済み
var asOf2023End = time.Date(2023, time.December, 25, 12, 0, 0, 0, time.UTC)

func newTestService(provider LeaderboardProvider, now time.Time) *Service {
	svc := NewService(provider, newTestLogger())
	svc.now = func() time.Time { return now }
	return svc
}

// --- ComputeOptions のテスト ---

func TestComputeOptions_UntouchedBoardAllEligible(t *testing.T) {
	// 誰も回答していないボードでは、最終日の後半以外の全マスが適格
	alice := model.MemberProgress{ID: 1, Name: "alice"}
	svc := newTestService(singleYearProvider(2023, boardWith(alice)), asOf2023End)

	options, err := svc.ComputeOptions(context.Background(), OptionsRequest{
		Years:   []uint{2023},
		BoardID: 42,
	})
	if err != nil {
		t.Fatalf("ComputeOptions がエラーを返した: %v", err)
	}

	// 25日 × 2パート - 最終日の後半1マス = 49
	if len(options) != 49 {
		t.Fatalf("マス数 = %d, want 49", len(options))
	}
	for _, sq := range options {
		if sq.Day == 25 && sq.Part == model.PartTwo {
			t.Error("最終日の後半が含まれている")
		}
	}
}

func TestComputeOptions_SolvedPartOneExcluded(t *testing.T) {
	// 1人でも前半を回答した日の前半は不適格になる
	alice := model.MemberProgress{ID: 1, Name: "alice"}
	solve(&alice, 3, model.PartOne, 1701600000)
	bob := model.MemberProgress{ID: 2, Name: "bob"}

	svc := newTestService(singleYearProvider(2023, boardWith(alice, bob)), asOf2023End)

	options, err := svc.ComputeOptions(context.Background(), OptionsRequest{
		Years:   []uint{2023},
		BoardID: 42,
	})
	if err != nil {
		t.Fatalf("ComputeOptions がエラーを返した: %v", err)
	}

	for _, sq := range options {
		if sq.Day == 3 && sq.Part == model.PartOne {
			t.Error("回答済みの前半マスが適格になっている")
		}
	}
	// 3日目の後半: aliceが前半回答済みだがbobが未回答のため
	// 「全員準備完了」ではなく、aliceの回答で「手つかず」でもない
	for _, sq := range options {
		if sq.Day == 3 && sq.Part == model.PartTwo {
			t.Error("片側だけ前半回答済みの日の後半が適格になっている")
		}
	}
}

func TestComputeOptions_PartTwoEligibleWhenAllSolvedPartOne(t *testing.T) {
	// 全員が前半を回答済みなら、その日の後半は適格
	alice := model.MemberProgress{ID: 1, Name: "alice"}
	solve(&alice, 5, model.PartOne, 1701700000)
	bob := model.MemberProgress{ID: 2, Name: "bob"}
	solve(&bob, 5, model.PartOne, 1701700100)

	svc := newTestService(singleYearProvider(2023, boardWith(alice, bob)), asOf2023End)

	options, err := svc.ComputeOptions(context.Background(), OptionsRequest{
		Years:   []uint{2023},
		BoardID: 42,
	})
	if err != nil {
		t.Fatalf("ComputeOptions がエラーを返した: %v", err)
	}

	foundPartTwo := false
	for _, sq := range options {
		if sq.Day == 5 && sq.Part == model.PartTwo {
			foundPartTwo = true
		}
		if sq.Day == 5 && sq.Part == model.PartOne {
			t.Error("全員回答済みの前半マスが適格になっている")
		}
	}
	if !foundPartTwo {
		t.Error("全員が前半回答済みの日の後半が適格になっていない")
	}
}

func TestComputeOptions_PartTwoSolvedExcluded(t *testing.T) {
	// 後半まで回答済みの日は前後半とも不適格
	alice := model.MemberProgress{ID: 1, Name: "alice"}
	solve(&alice, 7, model.PartOne, 1701800000)
	solve(&alice, 7, model.PartTwo, 1701800500)

	svc := newTestService(singleYearProvider(2023, boardWith(alice)), asOf2023End)

	options, err := svc.ComputeOptions(context.Background(), OptionsRequest{
		Years:   []uint{2023},
		BoardID: 42,
	})
	if err != nil {
		t.Fatalf("ComputeOptions がエラーを返した: %v", err)
	}

	for _, sq := range options {
		if sq.Day == 7 {
			t.Errorf("回答済みの日のマスが適格になっている: %+v", sq)
		}
	}
}

func TestComputeOptions_CutoffIgnoresOldSolves(t *testing.T) {
	// カットオフより前の回答は判定で無視される
	cutoff := time.Date(2023, time.December, 10, 0, 0, 0, 0, time.UTC)

	alice := model.MemberProgress{ID: 1, Name: "alice"}
	// カットオフ前の回答: 無視され、3日目の前半は適格のまま
	solve(&alice, 3, model.PartOne, uint64(cutoff.Unix())-3600)
	// カットオフ後の回答: 4日目の前半は不適格
	solve(&alice, 4, model.PartOne, uint64(cutoff.Unix())+3600)

	svc := newTestService(singleYearProvider(2023, boardWith(alice)), asOf2023End)

	options, err := svc.ComputeOptions(context.Background(), OptionsRequest{
		Years:   []uint{2023},
		BoardID: 42,
		Cutoff:  cutoff,
	})
	if err != nil {
		t.Fatalf("ComputeOptions がエラーを返した: %v", err)
	}

	day3PartOne := false
	for _, sq := range options {
		if sq.Day == 3 && sq.Part == model.PartOne {
			day3PartOne = true
		}
		if sq.Day == 4 && sq.Part == model.PartOne {
			t.Error("カットオフ後に回答された前半マスが適格になっている")
		}
	}
	if !day3PartOne {
		t.Error("カットオフ前の回答が判定に影響している")
	}
}

func TestComputeOptions_CutoffExactTimestampExcludes(t *testing.T) {
	// カットオフちょうどの時刻の回答は「カットオフ以降」として扱う
	cutoff := time.Date(2023, time.December, 10, 0, 0, 0, 0, time.UTC)

	alice := model.MemberProgress{ID: 1, Name: "alice"}
	solve(&alice, 3, model.PartOne, uint64(cutoff.Unix()))

	svc := newTestService(singleYearProvider(2023, boardWith(alice)), asOf2023End)

	options, err := svc.ComputeOptions(context.Background(), OptionsRequest{
		Years:   []uint{2023},
		BoardID: 42,
		Cutoff:  cutoff,
	})
	if err != nil {
		t.Fatalf("ComputeOptions がエラーを返した: %v", err)
	}

	for _, sq := range options {
		if sq.Day == 3 && sq.Part == model.PartOne {
			t.Error("カットオフちょうどの回答が無視されている")
		}
	}
}

func TestComputeOptions_MemberFilter(t *testing.T) {
	// フィルタ外のメンバーの回答は判定に影響しない
	alice := model.MemberProgress{ID: 1, Name: "alice"}
	solve(&alice, 3, model.PartOne, 1701600000)
	bob := model.MemberProgress{ID: 2, Name: "bob"}

	svc := newTestService(singleYearProvider(2023, boardWith(alice, bob)), asOf2023End)

	// bobのみを対象にすると、aliceの回答は無視される
	options, err := svc.ComputeOptions(context.Background(), OptionsRequest{
		Years:     []uint{2023},
		BoardID:   42,
		MemberIDs: []int64{2},
	})
	if err != nil {
		t.Fatalf("ComputeOptions がエラーを返した: %v", err)
	}

	day3PartOne := false
	for _, sq := range options {
		if sq.Day == 3 && sq.Part == model.PartOne {
			day3PartOne = true
		}
	}
	if !day3PartOne {
		t.Error("フィルタ外メンバーの回答が判定に影響している")
	}
}

func TestComputeOptions_FailedYearFullyEligible(t *testing.T) {
	// 取得に失敗した年は回答の証拠がないため全マスが適格になる
	provider := &mockProvider{
		rangeFn: func(ctx context.Context, years []uint, boardID int64, token string) []leaderboard.Result {
			results := make([]leaderboard.Result, 0, len(years))
			for _, y := range years {
				results = append(results, leaderboard.Result{Year: y, Err: errors.New("upstream down")})
			}
			return results
		},
	}

	svc := newTestService(provider, asOf2023End)

	options, err := svc.ComputeOptions(context.Background(), OptionsRequest{
		Years:   []uint{2022},
		BoardID: 42,
	})
	if err != nil {
		t.Fatalf("ComputeOptions がエラーを返した: %v", err)
	}

	// 失敗した年は最終日の後半も含めて全50マスが適格
	if len(options) != 50 {
		t.Errorf("マス数 = %d, want 50", len(options))
	}
}

func TestComputeOptions_DefaultYearsRange(t *testing.T) {
	// Yearsが空の場合は2015年から最新年まで
	var requested []uint
	provider := &mockProvider{
		rangeFn: func(ctx context.Context, years []uint, boardID int64, token string) []leaderboard.Result {
			requested = years
			results := make([]leaderboard.Result, 0, len(years))
			for _, y := range years {
				results = append(results, leaderboard.Result{Year: y, Err: errors.New("not available")})
			}
			return results
		},
	}

	svc := newTestService(provider, asOf2023End)

	_, err := svc.ComputeOptions(context.Background(), OptionsRequest{BoardID: 42})
	if err != nil {
		t.Fatalf("ComputeOptions がエラーを返した: %v", err)
	}

	if len(requested) != 9 || requested[0] != 2015 || requested[8] != 2023 {
		t.Errorf("要求された年 = %v, want 2015..2023", requested)
	}
}

func TestComputeOptions_NoOptions(t *testing.T) {
	// 未来の年のみを指定すると公開済みのマスが存在せずNoOptionsになる
	svc := newTestService(singleYearProvider(2023, boardWith()), asOf2023End)

	_, err := svc.ComputeOptions(context.Background(), OptionsRequest{
		Years:   []uint{2030},
		BoardID: 42,
	})
	if err == nil {
		t.Fatal("エラーを期待したが nil が返った")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeNoOptions {
		t.Errorf("エラーコード = %v, want %s", err, model.ErrCodeNoOptions)
	}
}

func TestComputeOptions_OnlyOpenDays(t *testing.T) {
	// イベント進行中は公開済みの日のみが対象になる
	asOf := time.Date(2023, time.December, 5, 9, 0, 0, 0, time.UTC)
	svc := newTestService(singleYearProvider(2023, boardWith()), asOf)

	options, err := svc.ComputeOptions(context.Background(), OptionsRequest{
		Years:   []uint{2023},
		BoardID: 42,
	})
	if err != nil {
		t.Fatalf("ComputeOptions がエラーを返した: %v", err)
	}

	// 5日 × 2パート = 10マス
	if len(options) != 10 {
		t.Fatalf("マス数 = %d, want 10", len(options))
	}
	for _, sq := range options {
		if sq.Day > 5 {
			t.Errorf("未公開の日のマスが含まれる: %+v", sq)
		}
	}
}
