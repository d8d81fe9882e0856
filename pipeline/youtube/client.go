package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"product-pulse/internal/models"
	"product-pulse/shared/config"
)

const defaultTranscriptBaseURL = "https://www.youtube.com/api/timedtext"

// Client backs video search with the YouTube Data API v3 and transcript
// resolution with the public timedtext endpoint. Search only needs an API
// key; no user-scoped data is touched.
type Client struct {
	service           *youtube.Service
	httpClient        *http.Client
	transcriptBaseURL string
	log               *logrus.Logger
}

func NewClient(cfg *config.YouTubeConfig, log *logrus.Logger) (*Client, error) {
	ctx := context.Background()

	service, err := youtube.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{
		service:           service,
		httpClient:        &http.Client{Timeout: 30 * time.Second},
		transcriptBaseURL: defaultTranscriptBaseURL,
		log:               log,
	}, nil
}

// SearchVideos runs a keyword search and resolves full details for each hit.
func (c *Client) SearchVideos(ctx context.Context, query string, maxResults int64) ([]models.VideoCandidate, error) {
	searchCall := c.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		Order("relevance").
		VideoDefinition("high").
		MaxResults(maxResults)

	searchResponse, err := searchCall.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to search videos: %w", err)
	}

	var videoIDs []string
	for _, item := range searchResponse.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			videoIDs = append(videoIDs, item.Id.VideoId)
		}
	}
	if len(videoIDs) == 0 {
		return []models.VideoCandidate{}, nil
	}

	// Resolve statistics in one batch; search results only carry snippets.
	videosCall := c.service.Videos.List([]string{"snippet", "statistics"}).
		Id(strings.Join(videoIDs, ","))

	videosResponse, err := videosCall.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get video details: %w", err)
	}

	candidates := make([]models.VideoCandidate, 0, len(videosResponse.Items))
	for _, item := range videosResponse.Items {
		candidate := models.VideoCandidate{
			ID:          item.Id,
			Title:       item.Snippet.Title,
			ChannelName: item.Snippet.ChannelTitle,
			URL:         fmt.Sprintf("https://www.youtube.com/watch?v=%s", item.Id),
		}

		if publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			candidate.PublishedAt = publishedAt
		}
		if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.High != nil {
			candidate.ThumbnailURL = item.Snippet.Thumbnails.High.Url
		}
		if item.Statistics != nil {
			candidate.ViewCount = int64(item.Statistics.ViewCount)
		}

		candidates = append(candidates, candidate)
	}

	c.log.WithFields(logrus.Fields{
		"query":   query,
		"results": len(candidates),
	}).Debug("YouTube search complete")

	return candidates, nil
}

// timedText is the XML payload served by the timedtext endpoint.
type timedText struct {
	XMLName xml.Name `xml:"transcript"`
	Texts   []struct {
		Start    float64 `xml:"start,attr"`
		Duration float64 `xml:"dur,attr"`
		Value    string  `xml:",chardata"`
	} `xml:"text"`
}

// FetchTranscript downloads timed captions for a video. An empty response
// means the video has no captions in that language; that is reported as
// (nil, nil), not an error.
func (c *Client) FetchTranscript(ctx context.Context, videoID, lang string) ([]models.Segment, error) {
	endpoint := fmt.Sprintf("%s?v=%s&lang=%s", c.transcriptBaseURL, url.QueryEscape(videoID), url.QueryEscape(lang))

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create transcript request: %w", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch transcript: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("transcript endpoint returned status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("transcript endpoint returned status %d", resp.StatusCode))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read transcript response: %w", err)
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	return parseTimedText(body)
}

func parseTimedText(data []byte) ([]models.Segment, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}

	var payload timedText
	if err := xml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse transcript XML: %w", err)
	}
	if len(payload.Texts) == 0 {
		return nil, nil
	}

	segments := make([]models.Segment, 0, len(payload.Texts))
	for _, t := range payload.Texts {
		text := strings.TrimSpace(html.UnescapeString(t.Value))
		if text == "" {
			continue
		}
		segments = append(segments, models.Segment{
			Start:    t.Start,
			Duration: t.Duration,
			Text:     text,
		})
	}
	if len(segments) == 0 {
		return nil, nil
	}
	return segments, nil
}
