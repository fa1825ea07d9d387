package enrich

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/rivalscope/models"
)

const richPage = `<html><head>
<link rel="alternate" type="application/rss+xml" title="Blog" href="/feed.xml">
<link rel="alternate" type="application/atom+xml" href="https://example.com/atom.xml">
<script type="application/ld+json">
{"@context":"https://schema.org","@graph":[
  {"@type":"Organization","name":"Example"},
  {"@type":"Product","name":"Example Cloud","brand":{"@type":"Brand","name":"Example"},
   "offers":[
     {"@type":"Offer","name":"Pro","price":"49.00","priceCurrency":"USD"},
     {"@type":"Offer","name":"Team","price":99,"priceCurrency":"USD"}
   ]}
]}
</script>
<script type="application/ld+json">{ not json </script>
<script>window.cfg = {api: "/v2/pricing/plans", endpoint: '/v2/users', other: "x"};</script>
</head><body>
<div itemscope itemtype="https://schema.org/Product">
  <span itemprop="name">Starter</span>
  <meta itemprop="price" content="19">
  <meta itemprop="priceCurrency" content="USD">
</div>
</body></html>`

func TestAnalyze(t *testing.T) {
	r, err := Analyze(richPage, "https://example.com/pricing")
	require.NoError(t, err)

	bySource := make(map[string][]models.Finding)
	for _, f := range r.Findings {
		bySource[f.Source] = append(bySource[f.Source], f)
	}

	// One product and two offers from the @graph; the malformed block is dropped.
	require.Len(t, bySource[SourceJSONLD], 3)
	assert.Equal(t, "product", bySource[SourceJSONLD][0].Kind)
	assert.Equal(t, "Example", bySource[SourceJSONLD][0].Data["brand"])
	assert.Equal(t, 0.9, bySource[SourceJSONLD][0].Confidence)

	require.Len(t, bySource[SourceMicrodata], 1)
	assert.Equal(t, "Starter", bySource[SourceMicrodata][0].Data["name"])

	require.Len(t, bySource[SourceFeed], 2)
	assert.Equal(t, "https://example.com/feed.xml", bySource[SourceFeed][0].URL)

	require.Len(t, bySource[SourceAPIEndpoint], 1)
	assert.Equal(t, "/v2/pricing/plans", bySource[SourceAPIEndpoint][0].Data["apiUrl"])
	assert.Equal(t, "https://example.com/v2/pricing/plans", bySource[SourceAPIEndpoint][0].URL)

	assert.Equal(t, []string{SourceJSONLD, SourceMicrodata, SourceFeed, SourceAPIEndpoint}, r.Sources())

	require.Len(t, r.Offers, 3)
	assert.Equal(t, Offer{Plan: "Pro", Price: "49.00", Currency: "USD", Source: SourceJSONLD, Confidence: 0.9}, r.Offers[0])
	assert.Equal(t, "99", r.Offers[1].Price)
	assert.Equal(t, "Starter", r.Offers[2].Plan)
	assert.Equal(t, SourceMicrodata, r.Offers[2].Source)
}

func TestAnalyzeOfferInheritsProductName(t *testing.T) {
	page := `<script type="application/ld+json">
{"@type":"Product","name":"Widget","offers":{"@type":"Offer","price":"12.50","priceCurrency":"EUR"}}
</script>`
	r, err := Analyze(page, "https://example.com/")
	require.NoError(t, err)
	require.Len(t, r.Offers, 1)
	assert.Equal(t, "Widget", r.Offers[0].Plan)
	assert.Equal(t, "12.50", r.Offers[0].Price)
}

func TestAnalyzeEmptyPage(t *testing.T) {
	r, err := Analyze("<html><body><p>nothing here</p></body></html>", "https://example.com/")
	require.NoError(t, err)
	assert.Empty(t, r.Findings)
	assert.Empty(t, r.Offers)
	assert.Empty(t, r.Sources())
}

type pageFetcher struct {
	page *models.Page
	err  error
}

func (f pageFetcher) Fetch(context.Context, string) (*models.Page, error) {
	return f.page, f.err
}

func TestEnrichUsesFetcher(t *testing.T) {
	e := New(pageFetcher{page: &models.Page{HTML: richPage, FinalURL: "https://example.com/pricing"}})
	r, err := e.Enrich(context.Background(), "https://example.com/pricing")
	require.NoError(t, err)
	assert.NotEmpty(t, r.Offers)

	e = New(pageFetcher{err: errors.New("boom")})
	_, err = e.Enrich(context.Background(), "https://example.com/pricing")
	assert.Error(t, err)
}

func TestArchiveSnapshots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://example.com/pricing", r.URL.Query().Get("url"))
		assert.Equal(t, "json", r.URL.Query().Get("output"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
["urlkey","timestamp","original","mimetype","statuscode","digest","length"],
["com,example)/pricing","20240101000000","https://example.com/pricing","text/html","200","ABC","1234"],
["com,example)/pricing","20250101000000","https://example.com/pricing","text/html","200","DEF","1300"]
]`))
	}))
	defer srv.Close()

	a := NewArchive(srv.URL, time.Second, 2)
	snaps, err := a.Snapshots(context.Background(), "https://example.com/pricing")
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "20240101000000", snaps[0].Timestamp)
	assert.Equal(t, "https://web.archive.org/web/20240101000000/https://example.com/pricing", snaps[0].URL)

	f := ArchiveFinding("https://example.com/pricing", snaps)
	assert.Equal(t, SourceWayback, f.Source)
	assert.Equal(t, "2", f.Data["snapshots"])
	assert.Equal(t, "20250101000000", f.Data["last"])
}

func TestArchiveNoCaptures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	snaps, err := NewArchive(srv.URL, time.Second, 5).Snapshots(context.Background(), "https://example.com/")
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestArchiveServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewArchive(srv.URL, time.Second, 5).Snapshots(context.Background(), "https://example.com/")
	assert.Error(t, err)
}
