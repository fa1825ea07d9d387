package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/rivalscope/models"
)

func main() {
	apiURL := os.Getenv("RIVALSCOPE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}

	client := resty.New().
		SetBaseURL(apiURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(600 * time.Second)

	s := server.NewMCPServer(
		"rivalscope",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	scrapeTool := mcp.NewTool("scrape_competitor",
		mcp.WithDescription("Analyse a competitor web page and the pricing, plans, features, offers and coupon pages it links to. Returns pricing, coupons, discounts, features and calls-to-action with confidence scores."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The competitor URL to analyse"),
		),
		mcp.WithNumber("max_pages",
			mcp.Description("Maximum related pages to fetch besides the seed (default: server setting, max: 20)"),
			mcp.Min(0),
			mcp.Max(20),
		),
	)
	s.AddTool(scrapeTool, handleScrape(client))

	batchTool := mcp.NewTool("batch_scrape_competitors",
		mcp.WithDescription("Analyse several competitor URLs in parallel and return a summary for each."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("List of competitor URLs"),
			mcp.WithStringItems(),
		),
		mcp.WithNumber("max_pages",
			mcp.Description("Maximum related pages per URL"),
			mcp.Min(0),
			mcp.Max(20),
		),
	)
	s.AddTool(batchTool, handleBatch(client))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleScrape(client *resty.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		var out models.ScrapeResponse
		_, err = client.R().
			SetContext(ctx).
			SetBody(models.ScrapeRequest{URL: url, MaxPages: request.GetInt("max_pages", 0)}).
			SetResult(&out).
			SetError(&out).
			Post("/api/v1/scrape")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		if !out.Success {
			return mcp.NewToolResultError(errorText(&out)), nil
		}

		return mcp.NewToolResultText(summarize(out.Data)), nil
	}
}

func handleBatch(client *resty.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}

		var job models.BatchResponse
		resp, err := client.R().
			SetContext(ctx).
			SetBody(models.BatchRequest{URLs: urls, MaxPages: request.GetInt("max_pages", 0)}).
			SetResult(&job).
			Post("/api/v1/batch/scrape")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("batch request failed: %v", err)), nil
		}
		if resp.IsError() || job.ID == "" {
			return mcp.NewToolResultError(fmt.Sprintf("batch job creation failed: %s", resp.Status())), nil
		}

		status, err := pollBatch(ctx, client, job.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling batch job failed: %v", err)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Batch %s: %s (%d/%d completed)\n\n", status.ID, status.Status, status.Completed, status.Total)
		for i, r := range status.Results {
			switch {
			case r == nil:
				fmt.Fprintf(&sb, "--- [%d] pending ---\n\n", i+1)
			case r.Success:
				fmt.Fprintf(&sb, "--- [%d] %s ---\n%s\n\n", i+1, r.URL, summarize(r.Data))
			default:
				fmt.Fprintf(&sb, "--- [%d] %s FAILED: %s ---\n\n", i+1, r.URL, errorText(r))
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// pollBatch polls the job until it leaves the processing state.
func pollBatch(ctx context.Context, client *resty.Client, id string) (*models.BatchStatusResponse, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			var status models.BatchStatusResponse
			resp, err := client.R().
				SetContext(ctx).
				SetResult(&status).
				Get("/api/v1/batch/" + id)
			if err != nil {
				return nil, err
			}
			if resp.IsError() {
				return nil, fmt.Errorf("status %s", resp.Status())
			}
			if status.Status != models.BatchProcessing {
				return &status, nil
			}
		}
	}
}

func errorText(r *models.ScrapeResponse) string {
	if r.Error == nil {
		return "scrape failed"
	}
	return fmt.Sprintf("[%s] %s", r.Error.Code, r.Error.Message)
}

// summarize renders a result as a short header followed by indented JSON
// of the extracted signals.
func summarize(r *models.ScrapedResult) string {
	if r == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\nSource: %s\nPages: %d  Quality: %.1f  Sources: %s\n",
		r.Title, r.Metadata.URL, r.Metadata.PagesScraped, r.Metadata.DataQuality,
		strings.Join(r.Metadata.Sources, ", "))
	fmt.Fprintf(&sb, "Pricing: %d  Coupons: %d  Discounts: %d  Features: %d  Buttons: %d\n\n",
		len(r.Pricing), len(r.Coupons), len(r.Discounts), len(r.Features), len(r.Buttons))

	signals := struct {
		Pricing   []models.PricingItem  `json:"pricing"`
		Coupons   []models.CouponItem   `json:"coupons"`
		Discounts []models.DiscountItem `json:"discounts"`
		Features  []models.FeatureItem  `json:"features"`
		Buttons   []models.ButtonItem   `json:"buttons"`
		Pages     []models.PageRef      `json:"pages"`
	}{r.Pricing, r.Coupons, r.Discounts, r.Features, r.Buttons, r.Pages}

	raw, err := json.MarshalIndent(signals, "", "  ")
	if err != nil {
		return sb.String()
	}
	sb.Write(raw)
	return sb.String()
}
