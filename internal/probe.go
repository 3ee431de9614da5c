package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// perfPause separates the samples of PerformanceStats.
const perfPause = 500 * time.Millisecond

// maxConcurrentProbes bounds CheckAll.
const maxConcurrentProbes = 4

// Availability is the result of a HEAD probe against one endpoint.
type Availability struct {
	URL       string
	Available bool
	Status    int
	Latency   time.Duration
	Err       error
}

// TestResult is the result of one raw test message.
type TestResult struct {
	URL          string
	Success      bool
	Status       int
	Data         map[string]any
	ResponseTime time.Duration
	Err          error
}

// PerfStats summarizes a run of test messages.
type PerfStats struct {
	Samples     int
	Avg         time.Duration
	Min         time.Duration
	Max         time.Duration
	SuccessRate float64
}

// Prober talks to endpoints directly, without the relay chain, to report
// on their health.
type Prober struct {
	client  Doer
	source  string
	timeout time.Duration
	pause   time.Duration
	now     func() time.Time
}

// NewProber creates a Prober. timeout bounds each request.
func NewProber(client Doer, source string, timeout time.Duration) *Prober {
	if client == nil {
		client = &http.Client{}
	}
	return &Prober{
		client:  client,
		source:  source,
		timeout: timeout,
		pause:   perfPause,
		now:     time.Now,
	}
}

// CheckAvailability sends a HEAD request to url.
func (p *Prober) CheckAvailability(ctx context.Context, url string) Availability {
	res := Availability{URL: url}

	ctx, cancel := NewTimeoutSignal(p.timeout).Bind(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		res.Err = &AttemptError{Kind: KindNetworkUnreachable, Tier: "probe", URL: url, Err: err}
		return res
	}

	start := p.now()
	resp, err := p.client.Do(req)
	res.Latency = p.now().Sub(start)
	if err != nil {
		res.Err = &AttemptError{Kind: transportKind(ctx, err), Tier: "probe", URL: url, Err: err}
		return res
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	res.Status = resp.StatusCode
	res.Available = resp.StatusCode >= 200 && resp.StatusCode < 300
	return res
}

// CheckAll probes every url concurrently. Results keep the order of urls.
func (p *Prober) CheckAll(ctx context.Context, urls []string) []Availability {
	results := make([]Availability, len(urls))

	var g errgroup.Group
	g.SetLimit(maxConcurrentProbes)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			results[i] = p.CheckAvailability(ctx, u)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// SendTestMessage posts a probe envelope carrying text to url and times the
// round trip. The body is decoded as JSON, or kept under "rawText".
func (p *Prober) SendTestMessage(ctx context.Context, url, text string) (res TestResult) {
	res.URL = url
	start := p.now()
	defer func() { res.ResponseTime = p.now().Sub(start) }()

	body, err := ProbeEnvelope(text, p.source, start).Marshal()
	if err != nil {
		res.Err = fmt.Errorf("failed to encode test message: %w", err)
		return res
	}

	ctx, cancel := NewTimeoutSignal(p.timeout).Bind(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		res.Err = &AttemptError{Kind: KindNetworkUnreachable, Tier: "probe", URL: url, Err: err}
		return res
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		res.Err = &AttemptError{Kind: transportKind(ctx, err), Tier: "probe", URL: url, Err: err}
		return res
	}
	defer resp.Body.Close()

	res.Status = resp.StatusCode
	res.Success = resp.StatusCode >= 200 && resp.StatusCode < 300

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		res.Data = map[string]any{"error": "failed to read response"}
		return res
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil || data == nil {
		data = map[string]any{"rawText": string(raw)}
	}
	res.Data = data
	return res
}

// PerformanceStats sends samples test messages one after another, pausing
// between them, and summarizes latency and success rate.
func (p *Prober) PerformanceStats(ctx context.Context, url string, samples int) (PerfStats, error) {
	if samples <= 0 {
		return PerfStats{}, fmt.Errorf("samples must be positive, got %d", samples)
	}

	stats := PerfStats{Samples: samples}
	var total time.Duration
	succeeded := 0
	for i := 0; i < samples; i++ {
		res := p.SendTestMessage(ctx, url, fmt.Sprintf("Тест производительности #%d", i+1))
		LogDebug("Sample %d: status=%d time=%s", i+1, res.Status, res.ResponseTime)

		if res.Success {
			succeeded++
		}
		total += res.ResponseTime
		if i == 0 || res.ResponseTime < stats.Min {
			stats.Min = res.ResponseTime
		}
		if res.ResponseTime > stats.Max {
			stats.Max = res.ResponseTime
		}

		if i < samples-1 {
			select {
			case <-ctx.Done():
				return PerfStats{}, ctx.Err()
			case <-time.After(p.pause):
			}
		}
	}

	stats.Avg = total / time.Duration(samples)
	stats.SuccessRate = float64(succeeded) / float64(samples) * 100
	return stats, nil
}
