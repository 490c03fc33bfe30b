package mapview

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"welfare-advisor/internal/domain"
	"welfare-advisor/internal/recommend"
)

func rec(id string, score float64) domain.RecommendationItem {
	return domain.RecommendationItem{BenefitID: id, Title: "benefit " + id, Category: "주거", Score: score}
}

func withLoc(it domain.RecommendationItem, lat, lng float64) domain.RecommendationItem {
	it.Location = &domain.Location{Lat: lat, Lng: lng}
	return it
}

func benefitIDs(items []domain.RecommendationItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.BenefitID)
	}
	return out
}

func TestReconcile_BackfillsFromMarkers(t *testing.T) {
	idx := recommend.NewLocationIndex([]domain.Marker{
		{ID: "A", Title: "A center", Lat: 35.87, Lng: 128.60},
		{ID: "M1", Title: "M1 center", Lat: 35.80, Lng: 128.50},
		{ID: "M2", Title: "M2 center", Lat: 35.90, Lng: 128.70},
		{ID: "M3", Title: "M3 center", Lat: 35.95, Lng: 128.75},
	})
	latest := []domain.RecommendationItem{rec("A", 0.8), rec("Z", 0.9)}

	got := Reconcile(latest, idx)

	m1 := domain.Location{Lat: 35.80, Lng: 128.50}
	m2 := domain.Location{Lat: 35.90, Lng: 128.70}
	a := domain.Location{Lat: 35.87, Lng: 128.60}
	want := []domain.RecommendationItem{
		{BenefitID: "A", Title: "benefit A", Category: "주거", Score: 0.8, Location: &a},
		{BenefitID: "M1", Title: "M1 center", Category: "복지", Location: &m1},
		{BenefitID: "M2", Title: "M2 center", Category: "복지", Location: &m2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Reconcile mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcile_TopThreeByScore(t *testing.T) {
	latest := []domain.RecommendationItem{
		withLoc(rec("A", 0.9), 1, 1),
		withLoc(rec("B", 0.95), 2, 2),
		withLoc(rec("C", 0.1), 3, 3),
		withLoc(rec("D", 0.5), 4, 4),
	}
	got := Reconcile(latest, nil)
	require.Equal(t, []string{"B", "A", "D"}, benefitIDs(got))
}

func TestReconcile_SkipsUnlocatedRecommendations(t *testing.T) {
	latest := []domain.RecommendationItem{rec("A", 0.9), withLoc(rec("B", 0.5), 2, 2)}
	got := Reconcile(latest, recommend.NewLocationIndex(nil))
	require.Equal(t, []string{"B"}, benefitIDs(got))
}

func TestReconcile_NoLocationsMeansNothingToShow(t *testing.T) {
	got := Reconcile([]domain.RecommendationItem{rec("A", 0.9)}, nil)
	require.Empty(t, got)
}

func TestReconcile_MarkersOnlyBeforeAnyRecommendation(t *testing.T) {
	idx := recommend.NewLocationIndex([]domain.Marker{
		{ID: "M1", Lat: 1, Lng: 1},
		{ID: "M1", Lat: 1, Lng: 1},
		{ID: "", Lat: 2, Lng: 2},
		{ID: "M0", Lat: 0, Lng: 0},
		{ID: "M2", Lat: 3, Lng: 3},
		{ID: "M3", Lat: 4, Lng: 4},
		{ID: "M4", Lat: 5, Lng: 5},
	})
	got := Reconcile(nil, idx)
	require.Equal(t, []string{"M1", "M2", "M3"}, benefitIDs(got))
	for _, it := range got {
		require.Zero(t, it.Score)
		require.Equal(t, "복지", it.Category)
		require.Empty(t, it.Summary)
	}
}

func TestReconcile_DoesNotModifyInput(t *testing.T) {
	idx := recommend.NewLocationIndex([]domain.Marker{{ID: "A", Lat: 1, Lng: 1}})
	latest := []domain.RecommendationItem{rec("B", 0.1), rec("A", 0.9)}
	_ = Reconcile(latest, idx)
	require.Equal(t, []string{"B", "A"}, benefitIDs(latest))
	require.Nil(t, latest[1].Location)
}
