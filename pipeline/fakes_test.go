package pipeline

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"product-pulse/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

type fakeSearcher struct {
	candidates []models.VideoCandidate
	err        error

	mu       sync.Mutex
	gotQuery string
	gotMax   int64
}

func (f *fakeSearcher) SearchVideos(ctx context.Context, query string, maxResults int64) ([]models.VideoCandidate, error) {
	f.mu.Lock()
	f.gotQuery = query
	f.gotMax = maxResults
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

type fakeTranscripts struct {
	segments map[string][]models.Segment
	errs     map[string]error
}

func (f *fakeTranscripts) FetchTranscript(ctx context.Context, videoID, lang string) ([]models.Segment, error) {
	if err, ok := f.errs[videoID]; ok {
		return nil, err
	}
	return f.segments[videoID], nil
}

type fakePrices struct {
	results map[string]*models.PriceResult
	errs    map[string]error
}

func (f *fakePrices) FetchPrice(ctx context.Context, url, storeHint string) (*models.PriceResult, error) {
	if err, ok := f.errs[storeHint]; ok {
		return nil, err
	}
	return f.results[storeHint], nil
}

type fakeSentiment struct {
	fn func(text string) (float64, error)

	mu    sync.Mutex
	calls []string
}

func (f *fakeSentiment) ScoreSentiment(ctx context.Context, text string) (float64, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()
	return f.fn(text)
}

func (f *fakeSentiment) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeAttributes struct {
	fn func(text string) (models.Attributes, error)
}

func (f *fakeAttributes) ExtractAttributes(ctx context.Context, text string) (models.Attributes, error) {
	return f.fn(text)
}

type fakeAudience struct {
	fn func(text string) ([]string, error)

	mu      sync.Mutex
	gotText string
}

func (f *fakeAudience) ExtractAudienceFit(ctx context.Context, text string) ([]string, error) {
	f.mu.Lock()
	f.gotText = text
	f.mu.Unlock()
	return f.fn(text)
}

func transcriptOf(texts ...string) *models.Transcript {
	segments := make([]models.Segment, 0, len(texts))
	start := 0.0
	for _, t := range texts {
		segments = append(segments, models.Segment{Start: start, Duration: 2, Text: t})
		start += 2
	}
	return &models.Transcript{Language: "en", Segments: segments}
}

func videoWithTranscript(id string, texts ...string) models.Video {
	return models.Video{
		ID:         id,
		Title:      "video " + id,
		Transcript: transcriptOf(texts...),
	}
}
