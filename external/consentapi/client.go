package consentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/bitmark-inc/consent-api/schema"
)

const (
	consentFormsPath = "/api/consent-forms"
	consentSyncPath  = "/api/consent-to-ghl"
)

var (
	ErrConsentNotSaved  = fmt.Errorf("consent record is not saved")
	ErrConsentNotSynced = fmt.Errorf("consent is not synced to crm")
)

// Client posts consent records and crm events to the consent API
type Client struct {
	endpoint string
	client   *http.Client
}

func New(endpoint string) *Client {
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Endpoint returns the base address the client posts to
func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, result interface{}) (int, error) {
	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(payload); err != nil {
		return 0, err
	}

	u, err := url.Parse(c.endpoint + path)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), &body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	dumpBytes, err := httputil.DumpResponse(resp, true)
	if err != nil {
		log.WithField("prefix", "consentapi").WithError(err).Error("fail to dump response")
	}
	log.WithField("prefix", "consentapi").WithField("path", path).WithField("resp", string(dumpBytes)).Debug("response from consent api")

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return resp.StatusCode, fmt.Errorf("fail to decode response of %s: %w", path, err)
	}

	return resp.StatusCode, nil
}

// SaveConsent inserts a consent record and returns its id
func (c *Client) SaveConsent(ctx context.Context, r schema.ConsentRequest) (string, error) {
	var result schema.ConsentResponse

	status, err := c.post(ctx, consentFormsPath, r, &result)
	if err != nil {
		return "", err
	}

	if status != http.StatusOK || !result.Success {
		return "", fmt.Errorf("%w: status %d %s", ErrConsentNotSaved, status, result.Error)
	}

	return result.ConsentID, nil
}

// SyncConsent pushes a consent-completion event to the crm
func (c *Client) SyncConsent(ctx context.Context, p schema.SyncPayload) (*schema.SyncResponse, error) {
	var result schema.SyncResponse

	status, err := c.post(ctx, consentSyncPath, p, &result)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK || !result.Success {
		return nil, fmt.Errorf("%w: status %d %s", ErrConsentNotSynced, status, result.Error)
	}

	return &result, nil
}
