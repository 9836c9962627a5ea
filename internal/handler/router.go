package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mtib/aoc-bingo/internal/middleware"
)

// Pinger はデータベース疎通確認のインターフェース。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// ゲーム管理
	GameService GameServiceInterface
	// ゲームID生成の最大試行回数
	GameIDMaxAttempts int

	// ビンゴ選択肢計算
	BingoService BingoServiceInterface

	// ヘルスチェック
	DB Pinger

	// Prometheusメトリクス
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → LoggingMiddleware → RecoveryMiddleware → RateLimitMiddleware
//
// ヘルスチェックとメトリクスはレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS とロギングは全ルートに効く
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware())

	gameHandler := NewGameHandler(deps.GameService, deps.GameIDMaxAttempts)
	bingoHandler := NewBingoHandler(deps.BingoService)

	// --- 運用系エンドポイント（レート制限なし） ---

	r.Get("/health", newHealthHandler(deps.DB))

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- APIルート ---
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.Middleware())

		// ゲーム管理
		r.Route("/api/games", func(r chi.Router) {
			r.Post("/", gameHandler.CreateGame)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", gameHandler.GetGame)

				// メンバー登録
				r.Get("/memberships", gameHandler.ListMemberships)
				r.Post("/memberships", gameHandler.CreateMembership)
				r.Delete("/memberships/{memberID}", gameHandler.DeleteMembership)

				// リーダーボード名簿とビンゴ選択肢
				r.Get("/possible-members", gameHandler.PossibleMembers)
				r.Get("/options", gameHandler.GameOptions)
			})
		})

		// ゲーム非依存の選択肢計算
		r.Post("/api/bingo/options", bingoHandler.ComputeOptions)
	})

	return r
}

// newHealthHandler はデータベース疎通を確認するヘルスチェックハンドラーを返す。
func newHealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")

		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
				return
			}
		}

		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
