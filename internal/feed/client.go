// Package feed is the authenticated HTTP client for the upstream usage,
// CRM and reporting servers.
package feed

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/smallbiznis/chargeview/internal/config"
	"go.uber.org/zap"
)

type Client struct {
	httpClient *http.Client
	log        *zap.Logger

	usageServer     string
	crmServer       string
	reportingServer string
	authHeaderKey   string
	authToken       string
}

func NewClient(cfg config.Config, log *zap.Logger) *Client {
	transport := http.DefaultTransport
	if !cfg.SSLVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   time.Duration(cfg.ConnectTimeoutSecs) * time.Second,
			Transport: transport,
		},
		log:             log.Named("feed.client"),
		usageServer:     cfg.UsageServer,
		crmServer:       cfg.CRMServer,
		reportingServer: cfg.ReportingServer,
		authHeaderKey:   cfg.AuthHeaderKey,
		authToken:       cfg.AuthToken,
	}
}

func (c *Client) UsageURL(format string, args ...any) string {
	return c.usageServer + fmt.Sprintf(format, args...)
}

func (c *Client) CRMURL(format string, args ...any) string {
	return c.crmServer + fmt.Sprintf(format, args...)
}

func (c *Client) ReportingURL(format string, args ...any) string {
	return c.reportingServer + fmt.Sprintf(format, args...)
}

// GetJSON fetches url and decodes the body into out. A 404 returns
// ErrNoData so callers can persist an empty window; any other non-200
// status is a StatusError and a non-JSON body is a DecodeError.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set(c.authHeaderKey, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &StatusError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.log.Info("no data (404), skipping and continuing", zap.String("url", url))
		return ErrNoData
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &StatusError{URL: url, StatusCode: resp.StatusCode, Err: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{URL: url, ContentType: resp.Header.Get("Content-Type")}
	}
	return nil
}

type filesystemEntry struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

// LookupFilesystemID resolves a filesystem name to its upstream id by
// substring match against /xfs/filesystem, mirroring the reporting UI's
// matching rule.
func (c *Client) LookupFilesystemID(ctx context.Context, name string) (string, error) {
	var entries []filesystemEntry
	err := c.GetJSON(ctx, c.UsageURL("/xfs/filesystem"), &entries)
	if err != nil && err != ErrNoData {
		return "", err
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name, name) {
			return entry.ID.String(), nil
		}
	}
	return "", &LookupError{Name: name}
}
