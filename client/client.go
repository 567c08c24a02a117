// Package client is a thin HTTP binding to the circuit execution service.
// Every call is single shot and context aware. Retry policy, token refresh
// and result polling are left to the caller.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/jaskrrish/go-starq/qpu"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "go-starq/1.0"

	// EnvURL and EnvToken configure NewClientFromEnv.
	EnvURL   = "STARQ_URL"
	EnvToken = "STARQ_TOKEN"
)

// Config holds the connection settings for a Client.
type Config struct {
	// BaseURL is the root of the service API, for example
	// https://demo.example.com/station.
	BaseURL string
	// Token, when set, is sent as a bearer token on every request.
	Token string
	// HTTPClient optionally replaces the default client, which uses a 30
	// second timeout.
	HTTPClient *http.Client
	// UserAgent optionally replaces the default user agent string.
	UserAgent string
}

// Client talks to one circuit execution service. It is safe for concurrent
// use.
type Client struct {
	baseURL    *url.URL
	token      string
	userAgent  string
	httpClient *http.Client
}

// NewClient validates the configuration and returns a ready to use client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid base URL %q", cfg.BaseURL)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Errorf("base URL %q must use http or https", cfg.BaseURL)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		baseURL:    base,
		token:      cfg.Token,
		userAgent:  userAgent,
		httpClient: httpClient,
	}, nil
}

// NewClientFromEnv builds a client from the STARQ_URL and STARQ_TOKEN
// environment variables.
func NewClientFromEnv() (*Client, error) {
	return NewClient(Config{
		BaseURL: os.Getenv(EnvURL),
		Token:   os.Getenv(EnvToken),
	})
}

// GetArchitecture retrieves the calibrated gate set of the service's default
// calibration set.
func (c *Client) GetArchitecture(ctx context.Context) (*qpu.DynamicArchitecture, error) {
	return c.getArchitecture(ctx, "default")
}

// GetArchitectureForCalibration retrieves the calibrated gate set of a
// specific calibration set.
func (c *Client) GetArchitectureForCalibration(ctx context.Context, calibrationSetID uuid.UUID) (*qpu.DynamicArchitecture, error) {
	return c.getArchitecture(ctx, calibrationSetID.String())
}

func (c *Client) getArchitecture(ctx context.Context, calibrationSet string) (*qpu.DynamicArchitecture, error) {
	var arch qpu.DynamicArchitecture
	if err := c.do(ctx, http.MethodGet, c.endpoint("calibration", calibrationSet, "gates"), nil, &arch); err != nil {
		return nil, err
	}
	if err := arch.Validate(); err != nil {
		return nil, errors.Wrap(err, "service returned an inconsistent architecture")
	}
	log.WithFields(log.Fields{
		"calibration_set_id": arch.CalibrationSetID,
		"qubits":             len(arch.Qubits),
		"resonators":         len(arch.ComputationalResonators),
	}).Debug("fetched architecture")
	return &arch, nil
}

// SubmitCircuits submits a batch of circuits for execution and returns the id
// of the created job. The request is validated client-side first, see
// RunRequest.Validate.
func (c *Client) SubmitCircuits(ctx context.Context, req *RunRequest) (uuid.UUID, error) {
	if req == nil {
		return uuid.Nil, errors.New("run request is nil")
	}
	if err := req.Validate(); err != nil {
		return uuid.Nil, err
	}
	var created struct {
		ID uuid.UUID `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, c.endpoint("jobs"), req, &created); err != nil {
		return uuid.Nil, err
	}
	if created.ID == uuid.Nil {
		return uuid.Nil, errors.New("service did not return a job id")
	}
	log.WithFields(log.Fields{
		"job_id":   created.ID,
		"circuits": len(req.Circuits),
		"shots":    req.Shots,
	}).Debug("submitted circuit batch")
	return created.ID, nil
}

// GetRunResult fetches the current state of a job, including measurement
// results once it is ready. The job may still be pending; the caller decides
// whether and when to ask again.
func (c *Client) GetRunResult(ctx context.Context, jobID uuid.UUID) (*RunResult, error) {
	var result RunResult
	if err := c.do(ctx, http.MethodGet, c.endpoint("jobs", jobID.String()), nil, &result); err != nil {
		return nil, err
	}
	for _, w := range result.Warnings {
		log.WithField("job_id", jobID).Warn(w)
	}
	return &result, nil
}

// GetRunStatus fetches the status of a job without its results.
func (c *Client) GetRunStatus(ctx context.Context, jobID uuid.UUID) (*RunStatus, error) {
	var status RunStatus
	if err := c.do(ctx, http.MethodGet, c.endpoint("jobs", jobID.String(), "status"), nil, &status); err != nil {
		return nil, err
	}
	for _, w := range status.Warnings {
		log.WithField("job_id", jobID).Warn(w)
	}
	return &status, nil
}

// AbortJob asks the service to abort a submitted job. Aborting a job that has
// already finished fails.
func (c *Client) AbortJob(ctx context.Context, jobID uuid.UUID) error {
	return c.do(ctx, http.MethodPost, c.endpoint("jobs", jobID.String(), "abort"), nil, nil)
}

// endpoint joins path segments onto the configured base URL.
func (c *Client) endpoint(parts ...string) string {
	u := *c.baseURL
	segments := append([]string{strings.TrimRight(u.Path, "/")}, parts...)
	u.Path = strings.Join(segments, "/")
	return u.String()
}

// do sends one request and decodes the response into out when it is non-nil.
// Non-2xx responses become APIErrors carrying the service's detail message.
func (c *Client) do(ctx context.Context, method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decoding %s %s response", method, url)
	}
	return nil
}

func apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	detail := strings.TrimSpace(string(raw))
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Detail != "" {
		detail = body.Detail
	}
	return &APIError{StatusCode: resp.StatusCode, Detail: detail}
}
