package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/use-agent/rivalscope/models"
)

// Archive looks up captures of a URL in a Wayback CDX server.
type Archive struct {
	client   *resty.Client
	endpoint string
	limit    int
}

// NewArchive creates an Archive client for the CDX endpoint.
func NewArchive(endpoint string, timeout time.Duration, limit int) *Archive {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")
	if limit <= 0 {
		limit = 5
	}
	return &Archive{client: client, endpoint: endpoint, limit: limit}
}

// Snapshots returns up to limit captures of pageURL. A URL that was never
// archived yields no snapshots and no error.
func (a *Archive) Snapshots(ctx context.Context, pageURL string) ([]models.ArchiveSnapshot, error) {
	res, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"url":    pageURL,
			"output": "json",
			"limit":  strconv.Itoa(a.limit),
		}).
		Get(a.endpoint)
	if err != nil {
		return nil, fmt.Errorf("enrich: wayback lookup %s: %w", pageURL, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("enrich: wayback lookup %s: HTTP %d", pageURL, res.StatusCode())
	}
	return parseCDX(res.Body())
}

// parseCDX reads CDX JSON output: a header row followed by rows of
// [urlkey, timestamp, original, mimetype, statuscode, digest, length].
func parseCDX(body []byte) ([]models.ArchiveSnapshot, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var rows [][]string
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("enrich: decode cdx: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	snaps := make([]models.ArchiveSnapshot, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 3 {
			continue
		}
		snaps = append(snaps, models.ArchiveSnapshot{
			Timestamp: row[1],
			URL:       "https://web.archive.org/web/" + row[1] + "/" + row[2],
			Original:  row[2],
		})
	}
	return snaps, nil
}

// ArchiveFinding summarizes snapshots as a single finding.
func ArchiveFinding(pageURL string, snaps []models.ArchiveSnapshot) models.Finding {
	data := map[string]string{"snapshots": strconv.Itoa(len(snaps))}
	if len(snaps) > 0 {
		data["first"] = snaps[0].Timestamp
		data["last"] = snaps[len(snaps)-1].Timestamp
	}
	return models.Finding{
		Source:     SourceWayback,
		Kind:       "archive",
		URL:        pageURL,
		Data:       data,
		Confidence: confidenceWayback,
	}
}
