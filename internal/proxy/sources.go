package proxy

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Source supplies endpoint candidates from a proxy list.
type Source interface {
	Fetch(ctx context.Context) ([]*Endpoint, error)
	Name() string
}

// endpointConfig mirrors the proxy list file format.
type endpointConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Country  string `json:"country,omitempty"`
}

// FileSource loads user-configured endpoints from a JSON file.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return s.Path }

func (s FileSource) Fetch(_ context.Context) ([]*Endpoint, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read proxy file: %w", err)
	}
	var configs []endpointConfig
	if err := json.Unmarshal(raw, &configs); err != nil {
		return nil, fmt.Errorf("parse proxy file %s: %w", s.Path, err)
	}

	endpoints := make([]*Endpoint, 0, len(configs))
	for _, c := range configs {
		protocol, err := ParseProtocol(c.Type)
		if err != nil {
			return nil, fmt.Errorf("entry %s:%d: %w", c.Host, c.Port, err)
		}
		e := NewEndpoint(c.Host, c.Port, protocol)
		e.Username = c.Username
		e.Password = c.Password
		e.Country = c.Country
		endpoints = append(endpoints, e)
	}
	return endpoints, nil
}

// PlainListSource fetches a remote newline-delimited host:port list, such as
// the proxy-list.download API or the clarketm raw list on GitHub.
type PlainListSource struct {
	SourceName string
	URL        string
	Protocol   Protocol
	Limit      int
	Client     *http.Client
}

func (s PlainListSource) Name() string { return s.SourceName }

func (s PlainListSource) Fetch(ctx context.Context) ([]*Endpoint, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.SourceName, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", s.SourceName, resp.StatusCode)
	}

	limit := s.Limit
	if limit <= 0 {
		limit = 20
	}
	var endpoints []*Endpoint
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() && len(endpoints) < limit {
		line := strings.TrimSpace(scanner.Text())
		host, portStr, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		port, err := strconv.Atoi(strings.TrimSpace(portStr))
		if err != nil {
			continue
		}
		endpoints = append(endpoints, NewEndpoint(strings.TrimSpace(host), port, s.Protocol))
	}
	return endpoints, scanner.Err()
}

// GimmeProxySource pulls single endpoints from the gimmeproxy JSON API.
type GimmeProxySource struct {
	URL    string
	Count  int
	Client *http.Client
}

func (s GimmeProxySource) Name() string { return "gimmeproxy.com" }

func (s GimmeProxySource) Fetch(ctx context.Context) ([]*Endpoint, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	apiURL := s.URL
	if apiURL == "" {
		apiURL = "https://gimmeproxy.com/api/getProxy?format=json&protocol=http"
	}
	count := s.Count
	if count <= 0 {
		count = 5
	}

	var endpoints []*Endpoint
	for i := 0; i < count; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return endpoints, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return endpoints, fmt.Errorf("fetch gimmeproxy: %w", err)
		}
		var payload struct {
			IP      string `json:"ip"`
			Port    string `json:"port"`
			Country string `json:"country"`
		}
		err = json.NewDecoder(resp.Body).Decode(&payload)
		resp.Body.Close()
		if err != nil {
			return endpoints, fmt.Errorf("decode gimmeproxy response: %w", err)
		}
		port, err := strconv.Atoi(payload.Port)
		if err != nil {
			continue
		}
		e := NewEndpoint(payload.IP, port, ProtocolHTTP)
		e.Country = payload.Country
		endpoints = append(endpoints, e)

		select {
		case <-ctx.Done():
			return endpoints, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return endpoints, nil
}

// DefaultRemoteSources lists the public proxy lists tried at pool startup.
func DefaultRemoteSources() []Source {
	return []Source{
		PlainListSource{
			SourceName: "proxy-list.download",
			URL:        "https://www.proxy-list.download/api/v1/get?type=http",
			Protocol:   ProtocolHTTP,
			Limit:      20,
		},
		PlainListSource{
			SourceName: "clarketm/proxy-list",
			URL:        "https://raw.githubusercontent.com/clarketm/proxy-list/master/proxy-list-raw.txt",
			Protocol:   ProtocolHTTP,
			Limit:      15,
		},
		GimmeProxySource{Count: 5},
	}
}

// SaveWorking writes the currently working endpoints to a JSON file so a
// vetted list can be reloaded later through a FileSource.
func (p *Pool) SaveWorking(path string) error {
	endpoints := p.WorkingSnapshots()
	configs := make([]endpointConfig, 0, len(endpoints))
	for _, e := range endpoints {
		configs = append(configs, endpointConfig{
			Host:     e.Host,
			Port:     e.Port,
			Type:     string(e.Protocol),
			Username: e.Username,
			Password: e.Password,
			Country:  e.Country,
		})
	}
	raw, err := json.MarshalIndent(configs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
