package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/timmy/colorwalk/internal/domain"
)

type fakePlaceStore struct {
	place      *domain.Place
	getErr     error
	merged     map[string]interface{}
	mergeCalls int
}

func (f *fakePlaceStore) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.place, nil
}

func (f *fakePlaceStore) MergeFeatures(ctx context.Context, id string, updates map[string]interface{}) error {
	f.mergeCalls++
	f.merged = updates
	return nil
}

type fakeEmbeddingStore struct {
	err         error
	upserts     int
	lastPointID string
}

func (f *fakeEmbeddingStore) UpsertEmbedding(ctx context.Context, pointID string, vector []float32, placeID string) error {
	f.upserts++
	f.lastPointID = pointID
	return f.err
}

type fakeObjectStorage struct{}

func (fakeObjectStorage) EnsureBucket(ctx context.Context) error { return nil }
func (fakeObjectStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	return nil
}
func (fakeObjectStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, errors.New("not stored")
}
func (fakeObjectStorage) GetURL(key string) string { return "http://storage.local/" + key }
func (fakeObjectStorage) Delete(ctx context.Context, key string) error { return nil }
func (fakeObjectStorage) Exists(ctx context.Context, key string) (bool, error) {
	return false, nil
}

func testPlace() *domain.Place {
	return &domain.Place{
		ID:       "place-1",
		OwnerID:  "owner-1",
		Title:    "Blue Bottle Coffee",
		Address:  "Shibuya 1-2-3",
		PhotoKey: "places/place-1.jpg",
	}
}

// TestBuildFeatureUpdates verifies only successful sub-extractions contribute
// columns, so a merge can never null out existing data.
func TestBuildFeatureUpdates(t *testing.T) {
	now := time.Now()
	colorVector := buildColorVector(normalizePalette(colorfulSwatches()))

	testCases := []struct {
		name        string
		update      *FeatureUpdate
		wantKeys    []string
		absentKeys  []string
		wantPointID string
	}{
		{
			name: "color only",
			update: &FeatureUpdate{
				Palette:     normalizePalette(colorfulSwatches()),
				ColorVector: colorVector,
				Colorful:    domain.ColorfulnessDistinctive,
				ExtractedAt: &now,
			},
			wantKeys:   []string{"palette", "color_vector", "is_colorful", "extracted_at"},
			absentKeys: []string{"embedding_point_id", "embedding_model"},
		},
		{
			name: "text only",
			update: &FeatureUpdate{
				Embedding:   []float32{0.1, 0.2, 0.3},
				ExtractedAt: &now,
			},
			wantKeys:    []string{"embedding_point_id", "embedding_model", "extracted_at"},
			absentKeys:  []string{"palette", "color_vector", "is_colorful"},
			wantPointID: "point-1",
		},
		{
			name: "unclassified color never writes is_colorful",
			update: &FeatureUpdate{
				Palette:     normalizePalette(colorfulSwatches()),
				ColorVector: colorVector,
				ExtractedAt: &now,
			},
			wantKeys:   []string{"palette", "color_vector", "extracted_at"},
			absentKeys: []string{"is_colorful", "embedding_point_id", "embedding_model"},
		},
		{
			name:       "nothing succeeded",
			update:     &FeatureUpdate{},
			absentKeys: []string{"palette", "color_vector", "is_colorful", "embedding_point_id", "embedding_model", "extracted_at"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			updates := buildFeatureUpdates(tc.update, "point-1", "fake-model")

			for _, key := range tc.wantKeys {
				if _, ok := updates[key]; !ok {
					t.Errorf("Missing update key %q", key)
				}
			}
			for _, key := range tc.absentKeys {
				if _, ok := updates[key]; ok {
					t.Errorf("Unexpected update key %q", key)
				}
			}
			if tc.wantPointID != "" && updates["embedding_point_id"] != tc.wantPointID {
				t.Errorf("Point ID: got %v, want %v", updates["embedding_point_id"], tc.wantPointID)
			}
		})
	}
}

// TestEnrichDropsTextOnUpsertFailure verifies a failed embedding store write
// downgrades the attempt to color-only instead of failing it, leaving any
// previously stored embedding reference untouched.
func TestEnrichDropsTextOnUpsertFailure(t *testing.T) {
	places := &fakePlaceStore{place: testPlace()}
	embeddings := &fakeEmbeddingStore{err: errors.New("qdrant down")}

	scheduler := NewEnrichmentScheduler(
		places,
		embeddings,
		newTestExtraction(
			&fakePalette{swatches: colorfulSwatches()},
			&fakeEmbedding{vector: []float32{0.1, 0.2, 0.3}},
			nil,
		),
		fakeObjectStorage{},
		testLogger(),
		nil,
	)

	if err := scheduler.Enrich(context.Background(), testPlace()); err != nil {
		t.Fatalf("Enrich returned error: %v", err)
	}

	if places.merged == nil {
		t.Fatalf("MergeFeatures never called")
	}
	if _, ok := places.merged["color_vector"]; !ok {
		t.Errorf("Color fields missing from merge")
	}
	if _, ok := places.merged["embedding_point_id"]; ok {
		t.Errorf("Embedding reference merged despite upsert failure")
	}
}

// TestEnrichReusesExistingPointID verifies re-extraction overwrites the same
// embedding point instead of minting a new one.
func TestEnrichReusesExistingPointID(t *testing.T) {
	place := testPlace()
	place.EmbeddingPointID = "existing-point"

	places := &fakePlaceStore{place: place}
	embeddings := &fakeEmbeddingStore{}

	scheduler := NewEnrichmentScheduler(
		places,
		embeddings,
		newTestExtraction(
			&fakePalette{err: errors.New("palette down")},
			&fakeEmbedding{vector: []float32{0.1, 0.2, 0.3}},
			nil,
		),
		fakeObjectStorage{},
		testLogger(),
		nil,
	)

	if err := scheduler.Enrich(context.Background(), place); err != nil {
		t.Fatalf("Enrich returned error: %v", err)
	}

	if embeddings.lastPointID != "existing-point" {
		t.Errorf("Point ID: got %q, want %q", embeddings.lastPointID, "existing-point")
	}
	if places.merged["embedding_point_id"] != "existing-point" {
		t.Errorf("Merged point ID: got %v, want %q", places.merged["embedding_point_id"], "existing-point")
	}
}

// TestEnrichNoSignal verifies nothing is persisted when both sub-extractions
// fail.
func TestEnrichNoSignal(t *testing.T) {
	places := &fakePlaceStore{place: testPlace()}

	scheduler := NewEnrichmentScheduler(
		places,
		&fakeEmbeddingStore{},
		newTestExtraction(
			&fakePalette{err: errors.New("palette down")},
			&fakeEmbedding{err: errors.New("embedding down")},
			nil,
		),
		fakeObjectStorage{},
		testLogger(),
		nil,
	)

	err := scheduler.Enrich(context.Background(), testPlace())
	if !errors.Is(err, ErrNoUsableSignal) {
		t.Fatalf("Expected ErrNoUsableSignal, got %v", err)
	}
	if places.mergeCalls != 0 {
		t.Errorf("MergeFeatures called %d times on a no-signal attempt", places.mergeCalls)
	}
}

// TestScheduleNonBlocking verifies a full queue drops the work item instead of
// blocking the caller.
func TestScheduleNonBlocking(t *testing.T) {
	scheduler := NewEnrichmentScheduler(
		&fakePlaceStore{place: testPlace()},
		&fakeEmbeddingStore{},
		newTestExtraction(&fakePalette{}, &fakeEmbedding{}, nil),
		fakeObjectStorage{},
		testLogger(),
		&EnrichConfig{Workers: 1, QueueSize: 1},
	)
	// Workers never started: the queue cannot drain.

	if !scheduler.Schedule("place-1") {
		t.Fatalf("First schedule should be accepted")
	}

	done := make(chan bool, 1)
	go func() {
		done <- scheduler.Schedule("place-2")
	}()

	select {
	case accepted := <-done:
		if accepted {
			t.Errorf("Second schedule accepted despite full queue")
		}
	case <-time.After(time.Second):
		t.Fatalf("Schedule blocked on a full queue")
	}
}
