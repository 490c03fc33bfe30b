package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"welfare-advisor/internal/domain"
	"welfare-advisor/internal/integrations/backend"
	"welfare-advisor/internal/recommend"
	"welfare-advisor/internal/session"
)

type fakeBackend struct {
	mu        sync.Mutex
	requests  []backend.ChatRequest
	sendFn    func(ctx context.Context, req backend.ChatRequest) (backend.ChatResponse, error)
	markers   []domain.Marker
	markerErr error
	detail    domain.BenefitDetail
	detailErr error
	detailFn  func()
	detailIDs []string
}

func (f *fakeBackend) SendChat(ctx context.Context, req backend.ChatRequest) (backend.ChatResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	fn := f.sendFn
	f.mu.Unlock()
	if fn == nil {
		return backend.ChatResponse{}, errors.New("no chat response configured")
	}
	return fn(ctx, req)
}

func (f *fakeBackend) FetchLocations(context.Context) ([]domain.Marker, error) {
	return f.markers, f.markerErr
}

func (f *fakeBackend) FetchBenefitDetail(_ context.Context, id string) (domain.BenefitDetail, error) {
	f.mu.Lock()
	f.detailIDs = append(f.detailIDs, id)
	fn := f.detailFn
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
	return f.detail, f.detailErr
}

func (f *fakeBackend) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeBackend) lastRequest() backend.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func replyWith(resp backend.ChatResponse) func(context.Context, backend.ChatRequest) (backend.ChatResponse, error) {
	return func(context.Context, backend.ChatRequest) (backend.ChatResponse, error) {
		return resp, nil
	}
}

func failWith(err error) func(context.Context, backend.ChatRequest) (backend.ChatResponse, error) {
	return func(context.Context, backend.ChatRequest) (backend.ChatResponse, error) {
		return backend.ChatResponse{}, err
	}
}

type fakeMap struct {
	mu         sync.Mutex
	latest     [][]domain.RecommendationItem
	indexes    []*recommend.LocationIndex
	clearCalls int
	selected   []string
}

func (m *fakeMap) SetRecommendations(latest []domain.RecommendationItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest = append(m.latest, latest)
}

func (m *fakeMap) SetLocations(idx *recommend.LocationIndex) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexes = append(m.indexes, idx)
}

func (m *fakeMap) ClearSelection() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearCalls++
}

func (m *fakeMap) Select(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = append(m.selected, id)
}

func signedIn(t *testing.T, id domain.UserID) (*session.Context, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore(id, nil)
	sess, err := session.Load(context.Background(), store)
	require.NoError(t, err)
	return sess, store
}

// readOnlyStore loads from the wrapped store and fails every save.
type readOnlyStore struct {
	*session.MemoryStore
	err error
}

func (s readOnlyStore) SaveUserID(context.Context, domain.UserID) error { return s.err }

func (s readOnlyStore) SaveProfile(context.Context, domain.Profile) error { return s.err }

func newController(t *testing.T, b *fakeBackend, m MapSync, opts ...Option) *TurnController {
	t.Helper()
	sess, _ := signedIn(t, "42")
	opts = append([]Option{WithGreeting("")}, opts...)
	c, err := NewTurnController(b, sess, &recommend.IndexStore{}, m, opts...)
	require.NoError(t, err)
	return c
}

func rec(id string, score float64) domain.RecommendationItem {
	return domain.RecommendationItem{BenefitID: id, Title: "benefit " + id, Score: score}
}

func benefitIDs(items []domain.RecommendationItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.BenefitID)
	}
	return out
}
