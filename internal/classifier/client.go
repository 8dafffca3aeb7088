// Package classifier talks to the skin image classifier service.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/safar/aurora-commerce/internal/apperr"
)

const defaultTimeout = 15 * time.Second

// Prediction is the label the model assigns to an image.
type Prediction struct {
	Label      string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
}

// Client issues prediction calls against the classifier service.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// Classify uploads the image and returns the predicted condition.
func (c *Client) Classify(ctx context.Context, image []byte, filename string) (Prediction, error) {
	if len(image) == 0 {
		return Prediction{}, apperr.Validation("image is required.")
	}
	if strings.TrimSpace(filename) == "" {
		filename = "upload.jpg"
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("image", filename)
	if err != nil {
		return Prediction{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return Prediction{}, fmt.Errorf("write form file: %w", err)
	}
	if err := form.Close(); err != nil {
		return Prediction{}, fmt.Errorf("close form: %w", err)
	}

	endpoint, err := url.JoinPath(c.baseURL, "predict")
	if err != nil {
		return Prediction{}, unavailable(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return Prediction{}, unavailable(err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var prediction Prediction
	if err := c.do(req, &prediction); err != nil {
		return Prediction{}, err
	}

	prediction.Label = strings.TrimSpace(prediction.Label)
	if prediction.Label == "" {
		return Prediction{}, unavailable(errors.New("classifier: empty prediction"))
	}
	if prediction.Confidence < 0 || prediction.Confidence > 1 {
		return Prediction{}, unavailable(fmt.Errorf("classifier: confidence %v out of range", prediction.Confidence))
	}

	return prediction, nil
}

// ModelInfo returns the label mapping published by the model service.
func (c *Client) ModelInfo(ctx context.Context) (json.RawMessage, error) {
	endpoint, err := url.JoinPath(c.baseURL, "model-info")
	if err != nil {
		return nil, unavailable(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, unavailable(err)
	}
	req.Header.Set("Accept", "application/json")

	var info json.RawMessage
	if err := c.do(req, &info); err != nil {
		return nil, err
	}
	return info, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return unavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return unavailable(fmt.Errorf("classifier: status %d: %s", resp.StatusCode, drainError(resp.Body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return unavailable(fmt.Errorf("classifier: decode response: %w", err))
	}
	return nil
}

func unavailable(cause error) error {
	return apperr.ClassifierUnavailable("Skin analysis service is unavailable.", cause)
}

func drainError(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4<<10))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
