package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rulerace/rulerace-server/internal/dependencies/clock"
)

// DefaultDailyAnswerURL is the upstream endpoint for the daily puzzle
// answer. The %s slot takes the date as YYYY-MM-DD.
const DefaultDailyAnswerURL = "https://www.nytimes.com/svc/wordle/v2/%s.json"

const upstreamTimeout = 10 * time.Second

// DailyAnswerHandler proxies the upstream daily-answer endpoint so browser
// clients avoid its CORS restrictions.
type DailyAnswerHandler struct {
	upstreamURL string
	client      *http.Client
	clock       clock.Clock
	logger      *slog.Logger
}

// NewDailyAnswerHandler creates a DailyAnswerHandler. upstreamURL must
// contain a single %s verb for the YYYY-MM-DD date.
func NewDailyAnswerHandler(upstreamURL string, clk clock.Clock, logger *slog.Logger) *DailyAnswerHandler {
	return &DailyAnswerHandler{
		upstreamURL: upstreamURL,
		client:      &http.Client{Timeout: upstreamTimeout},
		clock:       clk,
		logger:      logger.With(slog.String("component", "daily_answer")),
	}
}

// Get fetches today's answer payload from upstream and relays it verbatim.
func (h *DailyAnswerHandler) Get(w http.ResponseWriter, r *http.Request) {
	date := h.clock.Now().Format("2006-01-02")
	url := fmt.Sprintf(h.upstreamURL, date)

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
	if err != nil {
		h.logger.Error("request build failed", slog.Any("error", err))
		http.Error(w, "Failed to fetch daily answer", http.StatusBadGateway)
		return
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Warn("upstream fetch failed", slog.Any("error", err))
		http.Error(w, "Failed to fetch daily answer", http.StatusBadGateway)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		h.logger.Warn("upstream returned non-200", slog.Int("status", resp.StatusCode))
		http.Error(w, "Failed to fetch daily answer", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Warn("relay failed", slog.Any("error", err))
	}
}
