package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/referralpro/funnel/app/dto"
)

// SignupClient submits an assembled registration to the product API. The
// submission is a single multipart POST; there is no retry policy, the caller
// decides what a failure means.
type SignupClient interface {
	SubmitRegistration(ctx context.Context, payload *dto.SignupPayload) error
}

// SignupClientImpl implements SignupClient against the product API
type SignupClientImpl struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSignupClient creates a product API signup client
func NewSignupClient(baseURL string, timeout time.Duration) *SignupClientImpl {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SignupClientImpl{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// SubmitRegistration POSTs the payload as the multipart form field "payload"
// to /auth/sign_up/. Only the status code decides the outcome; the response
// body may be JSON or plain text and is carried in the error for diagnostics.
func (c *SignupClientImpl) SubmitRegistration(ctx context.Context, payload *dto.SignupPayload) error {
	bs, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal signup payload: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	field, err := mw.CreateFormField("payload")
	if err != nil {
		return fmt.Errorf("failed to build multipart form: %w", err)
	}
	if _, err := field.Write(bs); err != nil {
		return fmt.Errorf("failed to build multipart form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to build multipart form: %w", err)
	}

	url := c.BaseURL + "/auth/sign_up/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("signup submission failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("signup submission failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
