package fetch

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/curiobot/curio/internal/curio"
)

// BotWallHeuristic implements rule-based promotion to the headless fetcher.
// Storefronts (Audible in particular) answer plain HTTP clients with
// interstitial challenge pages or near-empty shells.
type BotWallHeuristic struct {
	BodyLengthThreshold int
}

// NewBotWallHeuristic creates a detector.
func NewBotWallHeuristic(threshold int) *BotWallHeuristic {
	if threshold == 0 {
		threshold = 2048
	}
	return &BotWallHeuristic{BodyLengthThreshold: threshold}
}

var botWallMarkers = [][]byte{
	[]byte("captcha"),
	[]byte("cf-browser-verification"),
	[]byte("Checking your browser"),
	[]byte("Access Denied"),
	[]byte("Robot Check"),
	[]byte("automated access"),
}

// ShouldPromote decides whether the probe response warrants a headless retry.
func (h *BotWallHeuristic) ShouldPromote(probe curio.FetchResponse) bool {
	switch probe.StatusCode {
	case http.StatusForbidden, http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	}
	if probe.StatusCode != http.StatusOK {
		return false
	}
	if len(probe.Body) == 0 {
		return true
	}
	if len(probe.Body) < h.BodyLengthThreshold {
		return true
	}
	lower := bytes.ToLower(probe.Body)
	for _, marker := range botWallMarkers {
		if bytes.Contains(lower, bytes.ToLower(marker)) {
			return true
		}
	}
	return false
}

// NoopHeadless implements curio.Fetcher but always fails, for builds where
// headless browsing is disabled.
type NoopHeadless struct{}

// Fetch returns an error since this is a stub implementation.
func (NoopHeadless) Fetch(_ context.Context, _ curio.FetchRequest) (curio.FetchResponse, error) {
	return curio.FetchResponse{}, errors.New("headless fetcher not configured")
}
