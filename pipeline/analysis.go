package pipeline

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"product-pulse/internal/models"
)

const (
	maxPositives = 10
	maxNegatives = 10
	maxBestFor   = 5

	// NeutralScore is recorded for videos whose transcript is absent or
	// empty, so every attached video leaves analysis with a score.
	NeutralScore = 0.5
)

// AnalysisStage scores per-video sentiment, extracts attribute phrases and
// aggregates everything into a single product summary.
type AnalysisStage struct {
	sentiment  SentimentScorer
	attributes AttributeExtractor
	audience   AudienceExtractor

	spanChars     int
	combinedChars int
	fanOut        int
	log           *logrus.Logger
}

func NewAnalysisStage(sentiment SentimentScorer, attributes AttributeExtractor, audience AudienceExtractor, spanChars, combinedChars, fanOut int, log *logrus.Logger) *AnalysisStage {
	if spanChars < 1 {
		spanChars = 2000
	}
	if combinedChars < 1 {
		combinedChars = 10000
	}
	if fanOut < 1 {
		fanOut = 1
	}
	return &AnalysisStage{
		sentiment:     sentiment,
		attributes:    attributes,
		audience:      audience,
		spanChars:     spanChars,
		combinedChars: combinedChars,
		fanOut:        fanOut,
		log:           log,
	}
}

// AnalysisResult carries the aggregated summary plus the per-video scores
// the orchestrator writes back onto the video records.
type AnalysisResult struct {
	Summary    models.AnalysisSummary
	Sentiments map[string]float64
}

// videoOutcome is one video's contribution, kept in product order so that
// phrase ties rank by first-seen order regardless of completion order.
type videoOutcome struct {
	videoID string
	scored  bool
	score   float64
	attrs   models.Attributes
}

// Run analyzes every attached video. Individual capability failures are soft
// errors: the affected video simply contributes nothing. When no input
// yields a signal the summary falls back to the neutral defaults.
func (s *AnalysisStage) Run(ctx context.Context, videos []models.Video, fresh map[string]*models.Transcript) (AnalysisResult, []SoftError) {
	outcomes := make([]videoOutcome, len(videos))
	softCh := make(chan SoftError, len(videos)*2)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanOut)

	for i, video := range videos {
		i, video := i, video
		g.Go(func() error {
			outcomes[i] = s.analyzeVideo(gctx, video, transcriptText(video, fresh), softCh)
			return nil
		})
	}
	// Workers report failures as soft errors, never as group errors.
	_ = g.Wait()
	close(softCh)

	var softs []SoftError
	for soft := range softCh {
		softs = append(softs, soft)
	}

	result := AnalysisResult{
		Sentiments: make(map[string]float64, len(videos)),
	}

	var (
		scoreSum   float64
		scoreCount int
		positives  [][]string
		negatives  [][]string
	)
	for _, out := range outcomes {
		if out.scored {
			result.Sentiments[out.videoID] = out.score
			scoreSum += out.score
			scoreCount++
		}
		positives = append(positives, out.attrs.Positives)
		negatives = append(negatives, out.attrs.Negatives)
	}

	summary := models.NeutralSummary()
	if scoreCount > 0 {
		summary.Score = clampUnit(scoreSum / float64(scoreCount))
	}
	summary.Positives = rankByFrequency(positives, maxPositives)
	summary.Negatives = rankByFrequency(negatives, maxNegatives)
	summary.BestFor = s.extractBestFor(ctx, videos, fresh, &softs)

	result.Summary = summary

	s.log.WithFields(logrus.Fields{
		"videos": len(videos),
		"scored": scoreCount,
		"score":  summary.Score,
	}).Debug("Analysis complete")

	return result, softs
}

func (s *AnalysisStage) analyzeVideo(ctx context.Context, video models.Video, text string, softCh chan<- SoftError) videoOutcome {
	out := videoOutcome{videoID: video.ID}

	// Absent or empty transcript text scores neutral rather than being
	// omitted, so the video still leaves with a sentiment.
	if strings.TrimSpace(text) == "" {
		out.scored = true
		out.score = NeutralScore
		return out
	}

	score, err := s.scoreSpans(ctx, text)
	if err != nil {
		softCh <- SoftError{Stage: "analysis", Kind: KindAnalysisUnavailable, Subject: video.ID, Err: err}
	} else {
		out.scored = true
		out.score = score
	}

	attrs, err := s.attributes.ExtractAttributes(ctx, text)
	if err != nil {
		softCh <- SoftError{Stage: "analysis", Kind: KindAnalysisUnavailable, Subject: video.ID, Err: err}
	} else {
		out.attrs = attrs
	}

	return out
}

// scoreSpans splits text that exceeds the capability's input limit into
// sub-spans and averages their scores with equal weight.
func (s *AnalysisStage) scoreSpans(ctx context.Context, text string) (float64, error) {
	spans := splitSpans(text, s.spanChars)

	var sum float64
	for _, span := range spans {
		score, err := s.sentiment.ScoreSentiment(ctx, span)
		if err != nil {
			return 0, err
		}
		sum += score
	}
	return clampUnit(sum / float64(len(spans))), nil
}

func (s *AnalysisStage) extractBestFor(ctx context.Context, videos []models.Video, fresh map[string]*models.Transcript, softs *[]SoftError) []string {
	var parts []string
	for _, video := range videos {
		if text := strings.TrimSpace(transcriptText(video, fresh)); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return []string{}
	}

	combined := strings.Join(parts, "\n\n")
	if len(combined) > s.combinedChars {
		combined = combined[:s.combinedChars]
	}

	audiences, err := s.audience.ExtractAudienceFit(ctx, combined)
	if err != nil {
		*softs = append(*softs, SoftError{Stage: "analysis", Kind: KindAnalysisUnavailable, Err: err})
		return []string{}
	}
	if audiences == nil {
		audiences = []string{}
	}
	if len(audiences) > maxBestFor {
		audiences = audiences[:maxBestFor]
	}
	return audiences
}

// transcriptText resolves a video's analysis input: a freshly fetched
// transcript wins over whatever is already on the record.
func transcriptText(video models.Video, fresh map[string]*models.Transcript) string {
	if t, ok := fresh[video.ID]; ok {
		return t.Text()
	}
	return video.Transcript.Text()
}

// rankByFrequency counts exact-string occurrences across the per-video
// lists and keeps the most frequent entries. Ties rank by first-seen order;
// the stable sort preserves insertion order within equal counts.
func rankByFrequency(lists [][]string, max int) []string {
	counts := make(map[string]int)
	var order []string
	for _, list := range lists {
		for _, phrase := range list {
			if counts[phrase] == 0 {
				order = append(order, phrase)
			}
			counts[phrase]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > max {
		order = order[:max]
	}
	if order == nil {
		order = []string{}
	}
	return order
}

// splitSpans cuts text into chunks of at most max characters, preferring
// sentence boundaries and falling back to a hard cut for unbroken runs.
func splitSpans(text string, max int) []string {
	if len(text) <= max {
		return []string{text}
	}

	var spans []string
	var current strings.Builder
	for _, sentence := range splitSentences(text) {
		if current.Len() > 0 && current.Len()+len(sentence) > max {
			spans = append(spans, current.String())
			current.Reset()
		}
		for len(sentence) > max {
			spans = append(spans, sentence[:max])
			sentence = sentence[max:]
		}
		if sentence != "" {
			current.WriteString(sentence)
		}
	}
	if current.Len() > 0 {
		spans = append(spans, current.String())
	}
	return spans
}

func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i, r := range text {
		switch r {
		case '.', '!', '?', '。':
			sentences = append(sentences, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
