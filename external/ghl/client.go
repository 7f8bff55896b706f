package ghl

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

	log "github.com/sirupsen/logrus"
)

const (
	DefaultEndpoint = "https://services.leadconnectorhq.com"
	APIVersion      = "2021-07-28"
)

var ErrRequestFailed = fmt.Errorf("crm request failed")

type CustomField struct {
	Key        string `json:"key"`
	FieldValue string `json:"field_value"`
}

// Contact is the writable part of a crm contact
type Contact struct {
	FirstName    string        `json:"firstName"`
	LastName     string        `json:"lastName"`
	Email        string        `json:"email"`
	Phone        string        `json:"phone,omitempty"`
	Source       string        `json:"source"`
	Tags         []string      `json:"tags"`
	CustomFields []CustomField `json:"customFields"`
	DateOfBirth  string        `json:"dateOfBirth,omitempty"`
	LocationID   string        `json:"locationId,omitempty"`
}

type contactResult struct {
	Contact *struct {
		ID string `json:"id"`
	} `json:"contact"`
}

func (r contactResult) id() string {
	if r.Contact == nil {
		return ""
	}
	return r.Contact.ID
}

// Client calls the GoHighLevel contacts API of one location
type Client struct {
	endpoint   string
	token      string
	locationID string
	client     *http.Client
}

func New(endpoint, token, locationID string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	return &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		token:      token,
		locationID: locationID,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) MakeRequest(req *http.Request) (*http.Response, error) {
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.token))
	req.Header.Add("Version", APIVersion)
	req.Header.Add("Accept", "application/json")
	if req.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Add("Content-Type", "application/json")
	}
	return c.client.Do(req)
}

func (c *Client) do(ctx context.Context, method, path string, payload, result interface{}) error {
	var body io.Reader
	if payload != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			return err
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return err
	}

	resp, err := c.MakeRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	dumpBytes, err := httputil.DumpResponse(resp, true)
	if err != nil {
		log.WithField("prefix", "ghl").WithError(err).Error("fail to dump response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.WithField("prefix", "ghl").WithField("resp", string(dumpBytes)).Error("error response from crm")
		return fmt.Errorf("%w: %s %s status %d", ErrRequestFailed, method, path, resp.StatusCode)
	}

	log.WithField("prefix", "ghl").WithField("resp", string(dumpBytes)).Debug("response from crm")

	if result == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

// SearchDuplicate returns the id of the contact owning email, or an empty
// string when there is none
func (c *Client) SearchDuplicate(ctx context.Context, email string) (string, error) {
	q := url.Values{
		"locationId": []string{c.locationID},
		"email":      []string{email},
	}

	var result contactResult
	if err := c.do(ctx, http.MethodGet, "/contacts/search/duplicate?"+q.Encode(), nil, &result); err != nil {
		return "", err
	}
	return result.id(), nil
}

func (c *Client) CreateContact(ctx context.Context, contact Contact) (string, error) {
	contact.LocationID = c.locationID

	var result contactResult
	if err := c.do(ctx, http.MethodPost, "/contacts/", contact, &result); err != nil {
		return "", err
	}
	return result.id(), nil
}

func (c *Client) UpdateContact(ctx context.Context, contactID string, contact Contact) (string, error) {
	contact.LocationID = ""

	var result contactResult
	if err := c.do(ctx, http.MethodPut, "/contacts/"+url.PathEscape(contactID), contact, &result); err != nil {
		return "", err
	}

	if id := result.id(); id != "" {
		return id, nil
	}
	return contactID, nil
}

func (c *Client) AddNote(ctx context.Context, contactID, body string) error {
	return c.do(ctx, http.MethodPost, "/contacts/"+url.PathEscape(contactID)+"/notes", map[string]string{
		"body": body,
	}, nil)
}
