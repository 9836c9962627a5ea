package repository

import (
	"testing"
	"time"

	"github.com/mtib/aoc-bingo/internal/model"
)

// PostgresLeaderboardRepoはLeaderboardRepositoryインターフェースを満たすことを検証
func TestPostgresLeaderboardRepo_ImplementsInterface(t *testing.T) {
	var _ LeaderboardRepository = (*PostgresLeaderboardRepo)(nil)
}

// PostgresGameRepoはGameRepositoryインターフェースを満たすことを検証
func TestPostgresGameRepo_ImplementsInterface(t *testing.T) {
	var _ GameRepository = (*PostgresGameRepo)(nil)
}

func TestNewPostgresLeaderboardRepo_Initializes(t *testing.T) {
	repo := NewPostgresLeaderboardRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

func TestNewPostgresGameRepo_Initializes(t *testing.T) {
	repo := NewPostgresGameRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// LeaderboardSnapshotモデルのフィールドが正しく構築されることを検証
func TestLeaderboardSnapshot_Fields(t *testing.T) {
	now := time.Now()
	snapshot := &model.LeaderboardSnapshot{
		ID:          "11111111-1111-1111-1111-111111111111",
		Year:        2023,
		BoardID:     12345,
		Data:        &model.LeaderboardData{Event: "2023"},
		FetchedAt:   now,
		RefreshedAt: now,
	}

	if snapshot.Year != 2023 {
		t.Errorf("snapshot.Year = %d, want 2023", snapshot.Year)
	}
	if snapshot.BoardID != 12345 {
		t.Errorf("snapshot.BoardID = %d, want 12345", snapshot.BoardID)
	}
	if snapshot.Data.Event != "2023" {
		t.Errorf("snapshot.Data.Event = %q, want %q", snapshot.Data.Event, "2023")
	}
}

// Gameモデルのフィールドが正しく構築されることを検証
func TestGameModel_Fields(t *testing.T) {
	now := time.Now()
	game := &model.Game{
		ID:            "abcd1234",
		LeaderboardID: 12345,
		SessionToken:  "token",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if game.ID != "abcd1234" {
		t.Errorf("game.ID = %q, want %q", game.ID, "abcd1234")
	}
	if game.LeaderboardID != 12345 {
		t.Errorf("game.LeaderboardID = %d, want 12345", game.LeaderboardID)
	}
}

// ErrGameNotFoundが独立したセンチネルであることを検証
func TestErrGameNotFound_Sentinel(t *testing.T) {
	if ErrGameNotFound == nil {
		t.Fatal("ErrGameNotFound should not be nil")
	}
	if ErrGameNotFound.Error() == "" {
		t.Error("ErrGameNotFound should have a message")
	}
}
