// Package model はドメインモデルを定義する。
package model

import "time"

// Game はビンゴゲームを表す。
// IDは8文字の英小文字・数字で、グローバルに一意。
type Game struct {
	ID            string
	LeaderboardID int64
	SessionToken  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Membership はゲームへのメンバー登録を表す。
// 所属先のGameが存在する間のみ作成・削除でき、Gameより長くは生存しない。
type Membership struct {
	ID         string
	GameID     string
	MemberID   int64
	MemberName string
	CreatedAt  time.Time
}
