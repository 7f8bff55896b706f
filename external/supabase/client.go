package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

const ServiceRole = "service_role"

var (
	ErrObjectExists  = fmt.Errorf("object already exists")
	ErrUnauthorized  = fmt.Errorf("storage request is not authorized")
	ErrStorageFailed = fmt.Errorf("storage request failed")
)

type errorResponse struct {
	StatusCode string `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// StorageClient talks to the storage API of a Supabase project. Objects
// are written create-only.
type StorageClient struct {
	endpoint string
	key      string
	bucket   string
	client   *http.Client
}

func New(endpoint, key, bucket string) *StorageClient {
	u, _ := url.Parse(endpoint)

	apiEndpoint := &url.URL{
		Scheme: u.Scheme,
		Host:   u.Host,
	}

	return &StorageClient{
		endpoint: apiEndpoint.String(),
		key:      key,
		bucket:   bucket,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *StorageClient) MakeRequest(req *http.Request) (*http.Response, error) {
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.key))
	req.Header.Add("apikey", c.key)
	if req.Header.Get("Content-Type") == "" {
		req.Header.Add("Content-Type", "application/json")
	}
	return c.client.Do(req)
}

// KeyRole reads the role claim of the configured key. The key is not
// verified, only inspected.
func (c *StorageClient) KeyRole() (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.key, claims); err != nil {
		return "", err
	}

	role, _ := claims["role"].(string)
	return role, nil
}

func (c *StorageClient) objectURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", c.endpoint, c.bucket, escapePath(path))
}

// PublicURL returns the public address of an object
func (c *StorageClient) PublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.endpoint, c.bucket, escapePath(path))
}

// PathOf is the inverse of PublicURL
func (c *StorageClient) PathOf(address string) (string, bool) {
	prefix := c.PublicURL("")
	if !strings.HasPrefix(address, prefix) {
		return "", false
	}

	p, err := url.PathUnescape(strings.TrimPrefix(address, prefix))
	if err != nil {
		return "", false
	}
	return p, true
}

func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// Upload creates an object. An existing object at the same path is never
// replaced; ErrObjectExists is returned instead.
func (c *StorageClient) Upload(ctx context.Context, path, contentType string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.objectURL(path), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")
	req.Header.Set("Cache-Control", "max-age=3600")

	resp, err := c.MakeRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.checkResponse(resp, "upload")
}

// Delete removes objects by path
func (c *StorageClient) Delete(ctx context.Context, paths ...string) error {
	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(map[string]interface{}{
		"prefixes": paths,
	}); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/storage/v1/object/%s", c.endpoint, c.bucket), &body)
	if err != nil {
		return err
	}

	resp, err := c.MakeRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.checkResponse(resp, "delete")
}

func (c *StorageClient) checkResponse(resp *http.Response, op string) error {
	// the request body is a binary artifact, only the response is dumped
	dumpBytes, err := httputil.DumpResponse(resp, true)
	if err != nil {
		log.WithField("prefix", "supabase").WithError(err).Error("fail to dump response")
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		log.WithField("prefix", "supabase").WithField("op", op).WithField("resp", string(dumpBytes)).Debug("response from storage")
		return nil
	}

	log.WithField("prefix", "supabase").WithField("op", op).WithField("resp", string(dumpBytes)).Error("error response from storage")

	var e errorResponse
	if b, err := io.ReadAll(resp.Body); err == nil {
		_ = json.Unmarshal(b, &e)
	}

	switch {
	case resp.StatusCode == http.StatusConflict, e.StatusCode == "409", e.Error == "Duplicate":
		return ErrObjectExists
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden,
		e.StatusCode == "401", e.StatusCode == "403":
		return fmt.Errorf("%w: %s", ErrUnauthorized, e.Message)
	}

	return fmt.Errorf("%w: status %d %s", ErrStorageFailed, resp.StatusCode, e.Message)
}
