package mapview

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"welfare-advisor/internal/domain"
)

// DefaultScriptURL is the Kakao Maps JavaScript SDK endpoint.
const DefaultScriptURL = "https://dapi.kakao.com/v2/maps/sdk.js"

// ScriptLoader returns a LoadFunc that fetches the Kakao Maps script for the
// app key, which validates the key, and then renders to w as text with a
// Kakao map link per pin.
func ScriptLoader(client *http.Client, scriptURL string, w io.Writer) LoadFunc {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if strings.TrimSpace(scriptURL) == "" {
		scriptURL = DefaultScriptURL
	}
	return func(ctx context.Context, appKey string) (SDK, error) {
		u, err := url.Parse(scriptURL)
		if err != nil {
			return nil, fmt.Errorf("mapview: parse script url: %w", err)
		}
		q := u.Query()
		q.Set("appkey", appKey)
		q.Set("autoload", "false")
		u.RawQuery = q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("mapview: create script request: %w", err)
		}
		res, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("mapview: fetch script: %w", err)
		}
		defer func() { _ = res.Body.Close() }()
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1<<20))
		if res.StatusCode < 200 || res.StatusCode >= 300 {
			return nil, fmt.Errorf("mapview: fetch script: unexpected status %d", res.StatusCode)
		}
		return NewConsoleSDK(w), nil
	}
}

// ConsoleSDK renders maps as text lines.
type ConsoleSDK struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleSDK creates a ConsoleSDK writing to w.
func NewConsoleSDK(w io.Writer) *ConsoleSDK {
	return &ConsoleSDK{w: w}
}

func (s *ConsoleSDK) NewMap(_ context.Context, center domain.Location, level int) (Map, error) {
	m := &consoleMap{sdk: s, level: level}
	m.SetCenter(center)
	return m, nil
}

func (s *ConsoleSDK) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, args...)
}

type consoleMap struct {
	sdk   *ConsoleSDK
	level int
}

func (m *consoleMap) SetCenter(center domain.Location) {
	m.sdk.printf("[map] center %.4f, %.4f (level %d)\n", center.Lat, center.Lng, m.level)
}

func (m *consoleMap) AddMarker(opts MarkerOptions) (PlacedMarker, error) {
	mark := " "
	if opts.ImageURL == SelectedMarkerImage {
		mark = "*"
	}
	m.sdk.printf("[map] %s %s (%.4f, %.4f) %s\n", mark, opts.Title, opts.Position.Lat, opts.Position.Lng, KakaoLink(opts.Title, opts.Position))
	return consoleMarker{}, nil
}

type consoleMarker struct{}

func (consoleMarker) Remove() {}

// KakaoLink returns the public Kakao map URL pinning title at loc.
func KakaoLink(title string, loc domain.Location) string {
	return fmt.Sprintf("https://map.kakao.com/link/map/%s,%g,%g", url.PathEscape(title), loc.Lat, loc.Lng)
}
