// Package main provides a CI-friendly smoke test for a running signup server.
//
// It validates:
//   - /healthz answers
//   - N concurrent POST /users registrations return 201
//   - both duration histograms grew by exactly N
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
)

var histograms = []string{
	"generate_hash_duration_seconds",
	"save_user_duration_seconds",
}

func main() {
	var (
		baseURL     = flag.String("url", "http://127.0.0.1:8080", "Server base URL")
		n           = flag.Int("n", 10, "Number of registrations")
		concurrency = flag.Int("c", 4, "Concurrent requests")
		timeout     = flag.Duration("timeout", 10*time.Second, "Per-request timeout")
		verbose     = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if err := validateBaseURL(*baseURL); err != nil {
		fatalf("invalid -url: %v", err)
	}
	if *n <= 0 || *concurrency <= 0 {
		fatalf("-n and -c must be positive")
	}

	base := strings.TrimRight(*baseURL, "/")
	client := &http.Client{Timeout: *timeout}
	root := context.Background()

	mustHealthy(root, client, base)

	before := mustScrapeCounts(root, client, base)

	g, ctx := errgroup.WithContext(root)
	g.SetLimit(*concurrency)
	for i := range *n {
		g.Go(func() error {
			email := fmt.Sprintf("smoke-%s@example.com", strings.ToLower(ulid.Make().String()))
			if err := register(ctx, client, base, email, fmt.Sprintf("smoke-password-%d", i)); err != nil {
				return fmt.Errorf("register %s: %w", email, err)
			}
			if *verbose {
				fmt.Printf("registered %s\n", email)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fatalf("%v", err)
	}

	after := mustScrapeCounts(root, client, base)
	for _, name := range histograms {
		if got := after[name] - before[name]; got != uint64(*n) {
			fatalf("%s_count grew by %d, want %d", name, got, *n)
		}
	}

	fmt.Printf("OK: registrations=%d hash_count=%d save_count=%d\n", *n, after[histograms[0]], after[histograms[1]])
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("missing host")
	}
	return nil
}

func mustHealthy(ctx context.Context, client *http.Client, base string) {
	status, _, err := get(ctx, client, base+"/healthz")
	if err != nil {
		fatalf("healthz: %v", err)
	}
	if status != http.StatusOK {
		fatalf("healthz: status %d", status)
	}
}

func register(ctx context.Context, client *http.Client, base, email, password string) error {
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/users", strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return nil
}

// mustScrapeCounts reads the _count sample of each histogram from /metrics.
func mustScrapeCounts(ctx context.Context, client *http.Client, base string) map[string]uint64 {
	status, body, err := get(ctx, client, base+"/metrics")
	if err != nil {
		fatalf("metrics: %v", err)
	}
	if status != http.StatusOK {
		fatalf("metrics: status %d", status)
	}

	out := make(map[string]uint64, len(histograms))
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		for _, name := range histograms {
			rest, ok := strings.CutPrefix(line, name+"_count ")
			if !ok {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
			if err != nil {
				fatalf("metrics: parse %s_count: %v", name, err)
			}
			out[name] = uint64(v)
		}
	}
	for _, name := range histograms {
		if _, ok := out[name]; !ok {
			fatalf("metrics: %s_count not exposed", name)
		}
	}
	return out
}

func get(ctx context.Context, client *http.Client, u string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return 0, "", err
	}
	return resp.StatusCode, string(b), nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
