package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// CLI flags
var (
	apiURL   = flag.String("api-url", "http://localhost:8080", "Pricewalk API base URL")
	runs     = flag.Int("runs", 3, "Number of runs per URL for averaging")
	maxPages = flag.Int("max-pages", 2, "Listing pages crawled per run")
	output   = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Test URLs covering listing layouts of different density.
var testURLs = []struct {
	Label string
	URL   string
}{
	{"Electronics", "https://www.ebay.com/sch/i.html?_nkw=usb+c+hub&_pgn=1"},
	{"Collectibles", "https://www.ebay.com/sch/i.html?_nkw=vintage+camera&_pgn=1"},
	{"Bulk", "https://www.ebay.com/sch/i.html?_nkw=phone+case&_pgn=1"},
}

// --- Request / Response types (mirrors models package) ---

type scrapeRequest struct {
	URL      string `json:"url"`
	MaxPages int    `json:"maxPages"`
}

type scrapeResponse struct {
	Success       bool      `json:"success"`
	TotalProducts int       `json:"totalProducts"`
	Products      []product `json:"products"`
	Error         string    `json:"error"`
	Message       string    `json:"message"`
}

type product struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Link        string `json:"link"`
	ImageURL    string `json:"imageUrl"`
	Description string `json:"description"`
}

// --- Benchmark result types ---

type runResult struct {
	Run              int    `json:"run"`
	TotalMs          int64  `json:"total_ms"`
	Products         int    `json:"products"`
	WithDescriptions int    `json:"with_descriptions"`
	Success          bool   `json:"success"`
	Error            string `json:"error,omitempty"`
}

type urlAverages struct {
	TotalMs          float64 `json:"total_ms"`
	Products         float64 `json:"products"`
	WithDescriptions float64 `json:"with_descriptions"`
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

	fmt.Println("=== Pricewalk Benchmark Suite ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Runs/URL:  %d\n", *runs)
	fmt.Printf("Max pages: %d\n", *maxPages)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	// Quick connectivity check.
	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure Pricewalk is running\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		RunsPerURL: *runs,
		MaxPages:   *maxPages,
	}

	for _, t := range testURLs {
		fmt.Printf("Benchmarking [%s] %s ...\n", t.Label, t.URL)
		ur := urlResult{URL: t.URL, Label: t.Label}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkURL(t.URL, i)
			if rr.Success {
				fmt.Printf("OK  %dms  %d products\n", rr.TotalMs, rr.Products)
			} else {
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			ur.Runs = append(ur.Runs, rr)
		}

		ur.Averages = computeAverages(ur.Runs)
		report.Results = append(report.Results, ur)
		fmt.Println()
	}

	// Print summary table.
	printTable(report.Results)

	// Write JSON report.
	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkURL(url string, run int) runResult {
	rr := runResult{Run: run}

	reqBody := scrapeRequest{
		URL:      url,
		MaxPages: *maxPages,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest("POST", *apiURL+"/scrape", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")

	// The API response carries no timing, so latency is measured here:
	// it includes every navigation, settle delay and detail fetch.
	client := &http.Client{Timeout: 600 * time.Second}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()
	rr.TotalMs = time.Since(start).Milliseconds()

	var sr scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Success = sr.Success
	rr.Products = sr.TotalProducts
	for _, p := range sr.Products {
		if p.Description != "-" {
			rr.WithDescriptions++
		}
	}

	if !sr.Success && sr.Error != "" {
		rr.Error = sr.Error
		if sr.Message != "" {
			rr.Error += ": " + sr.Message
		}
	}

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
		avg.TotalMs += float64(r.TotalMs)
		avg.Products += float64(r.Products)
		avg.WithDescriptions += float64(r.WithDescriptions)
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.TotalMs /= n
	avg.Products /= n
	avg.WithDescriptions /= n
	return &avg
}

func printTable(results []urlResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL\tAvg Latency\tAvg Products\tWith Descriptions\n")
	fmt.Fprintf(w, "───\t───────────\t────────────\t─────────────────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\n", truncateURL(r.URL, 40))
			continue
		}

		fmt.Fprintf(w, "%s\t%dms\t%.1f\t%.1f\n",
			truncateURL(r.URL, 40),
			int64(r.Averages.TotalMs),
			r.Averages.Products,
			r.Averages.WithDescriptions,
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
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
