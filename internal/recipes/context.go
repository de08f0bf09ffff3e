package recipes

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const fetchTimeout = 10 * time.Second

// Source is one upstream file to pull into the system message context.
type Source struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

// LoadSources parses the context sources YAML list.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading context sources: %w", err)
	}
	var sources []Source
	if err := yaml.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return sources, nil
}

// Fetcher pulls each source and renders a markdown context document of
// titled, fenced code sections. A failed fetch is logged and skipped.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

func NewFetcher(logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: fetchTimeout},
		logger: logger,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, sources []Source) string {
	var b strings.Builder
	for _, src := range sources {
		code, err := f.get(ctx, src.URL)
		if err != nil {
			f.logger.Warn("failed to fetch source", "title", src.Title, "url", src.URL, "error", err)
			continue
		}
		fmt.Fprintf(&b, "## %s\n```python\n%s\n```\n\n", strings.TrimSpace(src.Title), strings.TrimSpace(code))
	}
	return b.String()
}

func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// WriteContext fetches all sources and writes the rendered document,
// replacing any previous one.
func (f *Fetcher) WriteContext(ctx context.Context, sources []Source, path string) error {
	content := f.Fetch(ctx, sources)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing context file: %w", err)
	}
	return nil
}
