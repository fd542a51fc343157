package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// scrapeRequest mirrors the Pricewalk API request model.
type scrapeRequest struct {
	URL      string `json:"url"`
	MaxPages int    `json:"maxPages,omitempty"`
}

// product mirrors the Pricewalk API product model.
type product struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Link        string `json:"link"`
	ImageURL    string `json:"imageUrl"`
	Description string `json:"description"`
}

// scrapeResponse mirrors the Pricewalk API response model, error body
// included (the API returns {error, message} on failure).
type scrapeResponse struct {
	Success       bool      `json:"success"`
	TotalProducts int       `json:"totalProducts"`
	Products      []product `json:"products"`
	Error         string    `json:"error"`
	Message       string    `json:"message"`
}

func main() {
	apiURL := os.Getenv("PRICEWALK_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}

	s := server.NewMCPServer(
		"pricewalk",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	scrapeProductsTool := mcp.NewTool("scrape_products",
		mcp.WithDescription("Crawl a paginated e-commerce listing page and return structured products (name, price, link, image, description). Uses a headless browser to render JavaScript-heavy listings; crawling several pages of a large listing can take minutes."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the listing page to crawl"),
		),
		mcp.WithNumber("max_pages",
			mcp.Description("Maximum number of listing pages to visit (default: 3)"),
		),
	)

	s.AddTool(scrapeProductsTool, handleScrapeProducts(apiURL))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleScrapeProducts(apiURL string) server.ToolHandlerFunc {
	// Page navigation, settle delays, detail fetches and inter-page waits
	// add up; give a full crawl plenty of room.
	client := &http.Client{Timeout: 600 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		maxPages := 0
		if v, ok := request.GetArguments()["max_pages"].(float64); ok {
			maxPages = int(v)
		}

		reqBody := scrapeRequest{
			URL:      url,
			MaxPages: maxPages,
		}

		body, err := json.Marshal(reqBody)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal request: %v", err)), nil
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/scrape", bytes.NewReader(body))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(httpReq)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}

		var scrapeResp scrapeResponse
		if err := json.Unmarshal(respBody, &scrapeResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !scrapeResp.Success {
			errMsg := "scrape failed"
			if scrapeResp.Error != "" {
				errMsg = scrapeResp.Error
				if scrapeResp.Message != "" {
					errMsg += ": " + scrapeResp.Message
				}
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		return mcp.NewToolResultText(formatProducts(url, scrapeResp)), nil
	}
}

// formatProducts renders the product list as readable text for the tool
// result.
func formatProducts(url string, resp scrapeResponse) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d products at %s\n\n", resp.TotalProducts, url))

	for i, p := range resp.Products {
		sb.WriteString(fmt.Sprintf("--- [%d] %s ---\n", i+1, p.Name))
		sb.WriteString(fmt.Sprintf("Price: %s\n", p.Price))
		sb.WriteString(fmt.Sprintf("Link: %s\n", p.Link))
		sb.WriteString(fmt.Sprintf("Image: %s\n", p.ImageURL))
		sb.WriteString(fmt.Sprintf("Description: %s\n\n", p.Description))
	}

	return sb.String()
}
