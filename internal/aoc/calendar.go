// Package aoc はAdvent of Codeのパズルカレンダーと上流APIクライアントを提供する。
//
// カレンダーは純粋関数のみで構成される。各年のパズルは12月1日に1日目が公開され、
// 2024年以前は25日分、2025年以降は12日分が存在する。
package aoc

import (
	"sort"
	"time"

	"github.com/mtib/aoc-bingo/internal/model"
)

// EarliestYear はパズルが存在する最初の年。
const EarliestYear uint = 2015

// CalendarSize は指定した年のパズル日数を返す。
// 2015年より前の年はInvalidYearエラーを返す。
func CalendarSize(year uint) (uint, error) {
	if year < EarliestYear {
		return 0, model.NewInvalidYearError(year)
	}
	if year < 2025 {
		return 25, nil
	}
	return 12, nil
}

// LatestYear は指定時点で最新のカレンダーが属する年を返す。
// 12月であれば当年、それ以外は前年となる。
func LatestYear(asOf time.Time) uint {
	if asOf.Month() == time.December {
		return uint(asOf.Year())
	}
	return uint(asOf.Year() - 1)
}

// LatestOpenDay は指定時点で公開済みの最終日を返す。
// asOfが対象年の12月中であれば min(日付, カレンダーサイズ)、
// 対象年が完全に過去であればカレンダーサイズを返す。
// 対象年がまだ開始していない（未来である）場合は false を返す。
func LatestOpenDay(year uint, asOf time.Time) (uint, bool) {
	size, err := CalendarSize(year)
	if err != nil {
		return 0, false
	}

	if uint(asOf.Year()) == year {
		if asOf.Month() != time.December {
			return 0, false
		}
		day := uint(asOf.Day())
		if day > size {
			day = size
		}
		return day, true
	}

	if uint(asOf.Year()) > year {
		return size, true
	}
	return 0, false
}

// AllSquares は指定した各年の全マス（1..カレンダーサイズ × 前半/後半）を
// 年・日・パートの昇順で連結して返す。無効な年はスキップされる。
func AllSquares(years []uint) []model.Square {
	return squaresForYears(years, func(year uint) (uint, bool) {
		size, err := CalendarSize(year)
		if err != nil {
			return 0, false
		}
		return size, true
	})
}

// OpenSquares は指定した各年について、asOf時点で公開済みの日のみの
// マス一覧を返す。未来の年はスキップされる。
func OpenSquares(years []uint, asOf time.Time) []model.Square {
	return squaresForYears(years, func(year uint) (uint, bool) {
		return LatestOpenDay(year, asOf)
	})
}

// squaresForYears は年ごとの最終日を決める関数を受け取り、マス一覧を組み立てる。
func squaresForYears(years []uint, lastDay func(year uint) (uint, bool)) []model.Square {
	sorted := make([]uint, len(years))
	copy(sorted, years)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var squares []model.Square
	for _, year := range sorted {
		last, ok := lastDay(year)
		if !ok {
			continue
		}
		for day := uint(1); day <= last; day++ {
			squares = append(squares,
				model.Square{Year: year, Day: day, Part: model.PartOne},
				model.Square{Year: year, Day: day, Part: model.PartTwo},
			)
		}
	}
	return squares
}

// DifficultyScore はマスの推定難易度を返す。
// カレンダー内の進行度に対して単調増加し、後半パートには固定の加算がつく。
// 適格性判定には使用せず、下流の重み付けシグナルとしてのみ使う。
func DifficultyScore(sq model.Square) (uint, error) {
	size, err := CalendarSize(sq.Year)
	if err != nil {
		return 0, err
	}

	progression := float64(sq.Day-1) / float64(size-1)
	score := uint(progression*5) + 1
	if sq.Part == model.PartTwo {
		score += 2
	}
	return score, nil
}
