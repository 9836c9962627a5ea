// Package model はドメインモデルを定義する。
package model

// Part はパズルの前半・後半を表す。
type Part uint

const (
	// PartOne はパズルの前半。
	PartOne Part = 1
	// PartTwo はパズルの後半。
	PartTwo Part = 2
)

// Square はビンゴの1マスを表す不変の値型。
// 年・日・パートの3つ組で一意に識別される。
type Square struct {
	Year uint `json:"year"`
	Day  uint `json:"day"`
	Part Part `json:"part"`
}

// Less はカレンダー順（年→日→パートの昇順）の全順序を定義する。
func (s Square) Less(other Square) bool {
	if s.Year != other.Year {
		return s.Year < other.Year
	}
	if s.Day != other.Day {
		return s.Day < other.Day
	}
	return s.Part < other.Part
}
