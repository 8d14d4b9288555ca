// Package deepface implements feature.Model against a DeepFace-compatible
// REST service exposing POST /represent.
package deepface

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/viant/imgvec/feature"
)

// Dimensions lists the embedding length of the models served by DeepFace.
var Dimensions = map[string]int{
	"VGG-Face":     4096,
	"Facenet":      128,
	"Facenet512":   512,
	"OpenFace":     128,
	"DeepFace":     4096,
	"DeepID":       160,
	"ArcFace":      512,
	"SFace":        128,
	"GhostFaceNet": 512,
}

// Client calls the /represent endpoint.
type Client struct {
	baseURL    string
	model      string
	dim        int
	httpClient *http.Client
}

// New creates a client for cfg.Endpoint and cfg.Model.
func New(cfg feature.EmbeddingConfig) (*Client, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("deepface: invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("deepface: unsupported URL scheme: %q", u.Scheme)
	}
	dim, ok := Dimensions[cfg.Model]
	if !ok {
		return nil, fmt.Errorf("deepface: unknown model %q", cfg.Model)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.Endpoint, "/"),
		model:      cfg.Model,
		dim:        dim,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Name implements feature.Model.
func (c *Client) Name() string { return c.model }

// Dimension implements feature.Model.
func (c *Client) Dimension() int { return c.dim }

type representRequest struct {
	Img              string `json:"img"`
	ModelName        string `json:"model_name"`
	DetectorBackend  string `json:"detector_backend,omitempty"`
	EnforceDetection bool   `json:"enforce_detection"`
}

type facialArea struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type representResult struct {
	Embedding      []float32  `json:"embedding"`
	FaceConfidence float64    `json:"face_confidence"`
	FacialArea     facialArea `json:"facial_area"`
}

type representResponse struct {
	Results []representResult `json:"results"`
	Error   string            `json:"error"`
}

// Represent implements feature.Model.
func (c *Client) Represent(ctx context.Context, img image.Image, opts feature.RepresentOptions) ([]feature.Representation, error) {
	var buf bytes.Buffer
	buf.WriteString("data:image/jpeg;base64,")
	enc := base64.NewEncoder(base64.StdEncoding, &buf)
	if err := jpeg.Encode(enc, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("deepface: encode image: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("deepface: encode image: %w", err)
	}
	payload, err := json.Marshal(representRequest{
		Img:              buf.String(),
		ModelName:        c.model,
		DetectorBackend:  opts.Detector,
		EnforceDetection: opts.EnforceDetection,
	})
	if err != nil {
		return nil, fmt.Errorf("deepface: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/represent", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("deepface: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deepface: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("deepface: read response: %w", err)
	}
	var out representResponse
	decodeErr := json.Unmarshal(body, &out)
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if decodeErr == nil && out.Error != "" {
			msg = out.Error
		}
		if resp.StatusCode == http.StatusBadRequest && isNoFace(msg) {
			return nil, fmt.Errorf("%w: %s", feature.ErrNoRegion, msg)
		}
		return nil, fmt.Errorf("deepface: status %d: %s", resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("deepface: decode response: %w", decodeErr)
	}

	reps := make([]feature.Representation, 0, len(out.Results))
	for _, r := range out.Results {
		reps = append(reps, feature.Representation{
			Embedding:  r.Embedding,
			Confidence: r.FaceConfidence,
			Region:     feature.Region{X: r.FacialArea.X, Y: r.FacialArea.Y, W: r.FacialArea.W, H: r.FacialArea.H},
		})
	}
	return reps, nil
}

func isNoFace(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "could not be detected") || strings.Contains(msg, "no face")
}

var _ feature.Model = (*Client)(nil)
