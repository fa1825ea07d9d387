package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/use-agent/rivalscope/models"
)

// CLI flags
var (
	apiURL   = flag.String("api-url", "http://localhost:8080", "RivalScope API base URL")
	runs     = flag.Int("runs", 3, "Number of runs per URL for averaging")
	maxPages = flag.Int("max-pages", 3, "Related pages fetched per scrape")
	urlList  = flag.String("urls", "", "Comma-separated URLs to benchmark (default: built-in set)")
	output   = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Default URLs covering common competitor page shapes.
var testURLs = []struct{ Label, URL string }{
	{"SaaS pricing", "https://www.notion.so/pricing"},
	{"Dev tool", "https://github.com/pricing"},
	{"Hosting", "https://www.netlify.com/pricing/"},
	{"E-commerce", "https://www.shopify.com/pricing"},
	{"Static", "https://example.com"},
}

type runResult struct {
	Run          int     `json:"run"`
	LatencyMs    int64   `json:"latency_ms"`
	ServerMs     int64   `json:"server_ms"`
	PagesScraped int     `json:"pages_scraped"`
	Pricing      int     `json:"pricing"`
	Coupons      int     `json:"coupons"`
	Discounts    int     `json:"discounts"`
	Features     int     `json:"features"`
	Buttons      int     `json:"buttons"`
	Quality      float64 `json:"quality"`
	Sources      int     `json:"sources"`
	Success      bool    `json:"success"`
	Error        string  `json:"error,omitempty"`
}

type urlAverages struct {
	LatencyMs float64 `json:"latency_ms"`
	ServerMs  float64 `json:"server_ms"`
	Signals   float64 `json:"signals"`
	Quality   float64 `json:"quality"`
}

type urlResult struct {
	URL      string       `json:"url"`
	Label    string       `json:"label"`
	Runs     []runResult  `json:"runs"`
	Averages *urlAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp  string      `json:"timestamp"`
	APIURL     string      `json:"api_url"`
	RunsPerURL int         `json:"runs_per_url"`
	MaxPages   int         `json:"max_pages"`
	Results    []urlResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== RivalScope Benchmark Suite ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Runs/URL:  %d\n", *runs)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	client := resty.New().
		SetBaseURL(*apiURL).
		SetTimeout(5 * time.Minute)

	// Quick connectivity check.
	if _, err := client.R().Get("/api/v1/health"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure RivalScope is running (e.g. make run)\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		RunsPerURL: *runs,
		MaxPages:   *maxPages,
	}

	for _, t := range targets() {
		fmt.Printf("Benchmarking [%s] %s ...\n", t.Label, t.URL)
		ur := urlResult{URL: t.URL, Label: t.Label}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkURL(client, t.URL, i)
			if rr.Success {
				fmt.Printf("OK  %dms  quality %.1f\n", rr.LatencyMs, rr.Quality)
			} else {
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			ur.Runs = append(ur.Runs, rr)
		}

		ur.Averages = computeAverages(ur.Runs)
		report.Results = append(report.Results, ur)
		fmt.Println()
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func targets() []struct{ Label, URL string } {
	if *urlList == "" {
		return testURLs
	}
	var out []struct{ Label, URL string }
	for _, u := range strings.Split(*urlList, ",") {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, struct{ Label, URL string }{"Custom", u})
		}
	}
	return out
}

func benchmarkURL(client *resty.Client, url string, run int) runResult {
	rr := runResult{Run: run}

	var sr models.ScrapeResponse
	start := time.Now()
	_, err := client.R().
		SetBody(models.ScrapeRequest{URL: url, MaxPages: *maxPages, Timeout: 120}).
		SetResult(&sr).
		SetError(&sr).
		Post("/api/v1/scrape")
	rr.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	if !sr.Success || sr.Data == nil {
		rr.Error = "scrape failed"
		if sr.Error != nil {
			rr.Error = sr.Error.Message
		}
		return rr
	}

	d := sr.Data
	rr.Success = true
	rr.ServerMs = d.Metadata.ProcessingTimeMs
	rr.PagesScraped = d.Metadata.PagesScraped
	rr.Pricing = len(d.Pricing)
	rr.Coupons = len(d.Coupons)
	rr.Discounts = len(d.Discounts)
	rr.Features = len(d.Features)
	rr.Buttons = len(d.Buttons)
	rr.Quality = d.Metadata.DataQuality
	rr.Sources = len(d.Metadata.Sources)
	return rr
}

func computeAverages(runs []runResult) *urlAverages {
	var successCount int
	var avg urlAverages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		avg.LatencyMs += float64(r.LatencyMs)
		avg.ServerMs += float64(r.ServerMs)
		avg.Signals += float64(r.Pricing + r.Coupons + r.Discounts + r.Features + r.Buttons)
		avg.Quality += r.Quality
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.LatencyMs /= n
	avg.ServerMs /= n
	avg.Signals /= n
	avg.Quality /= n
	return &avg
}

func printTable(results []urlResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"URL", "Avg Latency", "Server", "Signals", "Quality", "Pages"})

	for _, r := range results {
		if r.Averages == nil {
			t.AppendRow(table.Row{truncateURL(r.URL, 40), "FAILED", "-", "-", "-", "-"})
			continue
		}
		t.AppendRow(table.Row{
			truncateURL(r.URL, 40),
			fmt.Sprintf("%dms", int64(r.Averages.LatencyMs)),
			fmt.Sprintf("%dms", int64(r.Averages.ServerMs)),
			fmt.Sprintf("%.1f", r.Averages.Signals),
			fmt.Sprintf("%.1f", r.Averages.Quality),
			lastPages(r.Runs),
		})
	}
	t.Render()
}

func lastPages(runs []runResult) int {
	for i := len(runs) - 1; i >= 0; i-- {
		if runs[i].Success {
			return runs[i].PagesScraped
		}
	}
	return 0
}

func truncateURL(u string, max int) string {
	if len(u) <= max {
		return u
	}
	return u[:max-3] + "..."
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
