package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"product-pulse/internal/models"
)

// TranscriptStage resolves captions for every video that lacks one. Fetches
// across videos are independent and run concurrently up to the fan-out cap.
type TranscriptStage struct {
	fetch  TranscriptFetcher
	lang   string
	fanOut int
	log    *logrus.Logger
}

func NewTranscriptStage(fetch TranscriptFetcher, lang string, fanOut int, log *logrus.Logger) *TranscriptStage {
	if fanOut < 1 {
		fanOut = 1
	}
	return &TranscriptStage{fetch: fetch, lang: lang, fanOut: fanOut, log: log}
}

// Run returns new transcripts keyed by video ID. A video without a
// transcript gets a soft unavailable marker; it is excluded from analysis
// input but never blocks its siblings.
func (s *TranscriptStage) Run(ctx context.Context, videos []models.Video) (map[string]*models.Transcript, []SoftError) {
	var pending []models.Video
	for _, v := range videos {
		if v.Transcript == nil {
			pending = append(pending, v)
		}
	}
	if len(pending) == 0 {
		return map[string]*models.Transcript{}, nil
	}

	var (
		mu          sync.Mutex
		transcripts = make(map[string]*models.Transcript, len(pending))
		softs       []SoftError
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanOut)

	for _, video := range pending {
		video := video
		g.Go(func() error {
			segments, err := s.fetch.FetchTranscript(gctx, video.ID, s.lang)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				softs = append(softs, SoftError{
					Stage:   "transcript",
					Kind:    KindSourceUnavailable,
					Subject: video.ID,
					Err:     err,
				})
				return nil
			}
			if len(segments) == 0 {
				softs = append(softs, SoftError{
					Stage:   "transcript",
					Kind:    KindTranscriptUnavailable,
					Subject: video.ID,
				})
				return nil
			}

			transcripts[video.ID] = &models.Transcript{
				Language:  s.lang,
				Segments:  segments,
				FetchedAt: time.Now().UTC(),
			}
			return nil
		})
	}

	// Workers never return errors; soft errors are collected instead.
	_ = g.Wait()

	s.log.WithFields(logrus.Fields{
		"pending": len(pending),
		"fetched": len(transcripts),
	}).Debug("Transcript extraction complete")

	return transcripts, softs
}
