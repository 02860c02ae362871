package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Faultbox/vpet-sync/pkg/scene"
)

// SectionURL returns the HTTP URL of a scene section on the server at
// baseURL.
func SectionURL(baseURL string, name scene.SectionName) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing server url: %w", err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/scene/" + string(name)
	return u.String(), nil
}

// FetchScene downloads every scene section from the server at baseURL.
func FetchScene(ctx context.Context, client *http.Client, baseURL string) (*scene.Sections, error) {
	if client == nil {
		client = http.DefaultClient
	}
	s := &scene.Sections{}
	for _, name := range scene.AllSections {
		data, err := fetchSection(ctx, client, baseURL, name)
		if err != nil {
			return nil, err
		}
		s.Set(name, data)
	}
	return s, nil
}

func fetchSection(ctx context.Context, client *http.Client, baseURL string, name scene.SectionName) ([]byte, error) {
	addr, err := SectionURL(baseURL, name)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s section: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s section: %s", name, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s section: %w", name, err)
	}
	return data, nil
}
