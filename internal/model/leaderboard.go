// Package model はドメインモデルを定義する。
package model

import (
	"strconv"
	"time"
)

// LeaderboardSnapshot は1つの(年, リーダーボードID)のキャッシュ済みスナップショットを表す。
// RefreshedAtがTTL判定を駆動する。行の所有者は永続ストアであり、
// サービス層はリクエスト処理中の一時コピーのみを保持する。
type LeaderboardSnapshot struct {
	ID          string
	Year        uint
	BoardID     int64
	Data        *LeaderboardData
	FetchedAt   time.Time
	RefreshedAt time.Time
}

// LeaderboardData は上流APIが返すリーダーボードJSONペイロード。
// membersおよびcompletion_day_levelのキーはJSON上は文字列
// （メンバーID、日番号 "1".."25"、パート "1"/"2"）で表現される。
type LeaderboardData struct {
	Event   string                    `json:"event"`
	Day1TS  uint64                    `json:"day1_ts"`
	OwnerID int64                     `json:"owner_id"`
	NumDays uint                      `json:"num_days"`
	Members map[string]MemberProgress `json:"members"`
}

// MemberProgress はリーダーボード上の1メンバーの進捗を表す。
// ある日・パートのエントリが存在しない場合は「未回答」と解釈する。
type MemberProgress struct {
	ID                 int64                          `json:"id"`
	Name               string                         `json:"name"`
	LocalScore         uint                           `json:"local_score"`
	Stars              uint                           `json:"stars"`
	LastStarTS         uint64                         `json:"last_star_ts"`
	CompletionDayLevel map[string]map[string]StarInfo `json:"completion_day_level"`
}

// StarInfo は1つのパズルパートの回答記録を表す。
type StarInfo struct {
	GetStarTS uint64 `json:"get_star_ts"`
	StarIndex *uint  `json:"star_index"`
}

// Star は指定した日・パートの回答記録を返す。未回答の場合はnilを返す。
func (m *MemberProgress) Star(day uint, part Part) *StarInfo {
	dayCompletion, ok := m.CompletionDayLevel[strconv.FormatUint(uint64(day), 10)]
	if !ok {
		return nil
	}
	star, ok := dayCompletion[strconv.FormatUint(uint64(part), 10)]
	if !ok {
		return nil
	}
	return &star
}

// LeaderboardMember はリーダーボードのメンバー名簿の1エントリ。
// 招待候補の一覧表示に使用する。
type LeaderboardMember struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
