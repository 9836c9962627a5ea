package aoc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const (
	// defaultBaseURL はAdvent of Code本番サイトのベースURL。
	defaultBaseURL = "https://adventofcode.com"
	// maxResponseSize は上流レスポンスボディの最大読み取りサイズ。
	maxResponseSize = 10 << 20
)

// Client はAdvent of CodeプライベートリーダーボードAPIのクライアント。
// セッションクッキーを付与してJSONスナップショットを取得する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLが空の場合は本番エンドポイントを使用する。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
	}
}

// FetchLeaderboard は指定した年・リーダーボードIDのスナップショットJSONを取得する。
// レスポンスボディを生のまま返し、解析は呼び出し元が行う。
// タイムアウトはctxおよびhttpClientの設定に従う。
func (c *Client) FetchLeaderboard(ctx context.Context, year uint, boardID int64, sessionToken string) ([]byte, error) {
	url := fmt.Sprintf("%s/%d/leaderboard/private/view/%d.json", c.baseURL, year, boardID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Cookie", fmt.Sprintf("session=%s", sessionToken))
	req.Header.Set("User-Agent", "aoc-bingo/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("リーダーボードAPIの呼び出しに失敗しました",
			slog.Uint64("year", uint64(year)),
			slog.Int64("board_id", boardID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("リーダーボードAPIがエラーステータスを返しました",
			slog.Uint64("year", uint64(year)),
			slog.Int64("board_id", boardID),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("リーダーボードAPIがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	return body, nil
}
