package benchmark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// APIBenchmark fires concurrent requests at a running directory API
type APIBenchmark struct {
	BaseURL     string
	Concurrency int
	Requests    int
	AuthToken   string
	Client      *http.Client
}

// BenchmarkResult aggregates one run
type BenchmarkResult struct {
	URL            string        `json:"url"`
	Method         string        `json:"method"`
	Concurrency    int           `json:"concurrency"`
	TotalRequests  int           `json:"total_requests"`
	SuccessCount   int           `json:"success_count"`
	FailureCount   int           `json:"failure_count"`
	TotalTime      time.Duration `json:"total_time"`
	AverageTime    time.Duration `json:"average_time"`
	MinTime        time.Duration `json:"min_time"`
	MaxTime        time.Duration `json:"max_time"`
	RequestsPerSec float64       `json:"requests_per_sec"`
	StatusCodes    map[int]int   `json:"status_codes"`
	Errors         []string      `json:"errors"`
}

// RequestResult is the outcome of a single request
type RequestResult struct {
	Duration   time.Duration
	StatusCode int
	Error      error
}

// PayloadFunc builds the body of the i-th request
type PayloadFunc func(i int) interface{}

// NewAPIBenchmark creates a benchmark against baseURL
func NewAPIBenchmark(baseURL string, concurrency, requests int, authToken string) *APIBenchmark {
	return &APIBenchmark{
		BaseURL:     baseURL,
		Concurrency: concurrency,
		Requests:    requests,
		AuthToken:   authToken,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// RunGET benchmarks a GET endpoint
func (b *APIBenchmark) RunGET(path string) *BenchmarkResult {
	return b.Run(http.MethodGet, path, nil)
}

// Run sends Requests requests with at most Concurrency in flight. payload
// may be nil for body-less requests.
func (b *APIBenchmark) Run(method, path string, payload PayloadFunc) *BenchmarkResult {
	url := b.BaseURL + path
	results := make([]RequestResult, b.Requests)

	g := new(errgroup.Group)
	g.SetLimit(b.Concurrency)

	startTime := time.Now()
	for i := 0; i < b.Requests; i++ {
		i := i
		g.Go(func() error {
			results[i] = b.do(method, url, payload, i)
			return nil
		})
	}
	_ = g.Wait()

	return summarize(method, url, b.Concurrency, results, time.Since(startTime))
}

func (b *APIBenchmark) do(method, url string, payload PayloadFunc, i int) RequestResult {
	var body []byte
	if payload != nil {
		data, err := json.Marshal(payload(i))
		if err != nil {
			return RequestResult{Error: fmt.Errorf("encode payload: %w", err)}
		}
		body = data
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.Client.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return RequestResult{Error: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if b.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+b.AuthToken)
	}

	start := time.Now()
	resp, err := b.Client.Do(req)
	if err != nil {
		return RequestResult{Error: err}
	}
	defer resp.Body.Close()

	return RequestResult{Duration: time.Since(start), StatusCode: resp.StatusCode}
}

func summarize(method, url string, concurrency int, results []RequestResult, elapsed time.Duration) *BenchmarkResult {
	r := &BenchmarkResult{
		URL:           url,
		Method:        method,
		Concurrency:   concurrency,
		TotalRequests: len(results),
		TotalTime:     elapsed,
		MinTime:       1<<63 - 1,
		StatusCodes:   make(map[int]int),
	}

	var total time.Duration
	for _, result := range results {
		if result.Error != nil {
			r.FailureCount++
			r.Errors = append(r.Errors, result.Error.Error())
			continue
		}

		total += result.Duration
		r.MinTime = min(r.MinTime, result.Duration)
		r.MaxTime = max(r.MaxTime, result.Duration)

		r.StatusCodes[result.StatusCode]++
		if result.StatusCode >= 200 && result.StatusCode < 300 {
			r.SuccessCount++
		} else {
			r.FailureCount++
		}
	}

	if n := len(results); n > 0 {
		r.AverageTime = total / time.Duration(n)
		r.RequestsPerSec = float64(n) / elapsed.Seconds()
	}
	return r
}

// String renders the result for test logs
func (r *BenchmarkResult) String() string {
	b := &strings.Builder{}

	fmt.Fprintf(b, "%s %s: %d requests, concurrency %d\n", r.Method, r.URL, r.TotalRequests, r.Concurrency)
	fmt.Fprintf(b, "  ok %d, failed %d, %.2f req/s\n", r.SuccessCount, r.FailureCount, r.RequestsPerSec)
	fmt.Fprintf(b, "  avg %s, min %s, max %s, total %s\n", r.AverageTime, r.MinTime, r.MaxTime, r.TotalTime)
	fmt.Fprintf(b, "  status codes %v\n", r.StatusCodes)
	for i, err := range r.Errors {
		if i >= 5 {
			fmt.Fprintf(b, "  ... %d more errors\n", len(r.Errors)-5)
			break
		}
		fmt.Fprintf(b, "  %s\n", err)
	}
	return b.String()
}
