// Package clarifai labels and locates objects in images through the Clarifai
// model outputs API.
package clarifai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
)

const (
	defaultBaseURL = "https://api.clarifai.com/v2/models"

	recognitionModel = "general-image-recognition"
	detectionModel   = "general-image-detection"
)

// Client implements domain.Recognizer and domain.ObjectDetector.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a Clarifai client authenticated with a personal access key.
func NewClient(apiKey string, timeout time.Duration) *Client {
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
	}
}

// Recognize returns the concepts the general recognition model sees in the
// whole image.
func (c *Client) Recognize(ctx context.Context, image []byte) ([]domain.Concept, error) {
	out, err := c.predict(ctx, recognitionModel, image)
	if err != nil {
		return nil, err
	}
	concepts := make([]domain.Concept, 0, len(out.Data.Concepts))
	for _, cc := range out.Data.Concepts {
		concepts = append(concepts, domain.Concept{Name: cc.Name, Score: cc.Value})
	}
	return concepts, nil
}

// Detect returns one concept per detected region, each carrying its box.
// Regions with several labels contribute their top label only.
func (c *Client) Detect(ctx context.Context, image []byte) ([]domain.Concept, error) {
	out, err := c.predict(ctx, detectionModel, image)
	if err != nil {
		return nil, err
	}
	concepts := make([]domain.Concept, 0, len(out.Data.Regions))
	for _, r := range out.Data.Regions {
		if len(r.Data.Concepts) == 0 {
			continue
		}
		top := r.Data.Concepts[0]
		for _, cc := range r.Data.Concepts[1:] {
			if cc.Value > top.Value {
				top = cc
			}
		}
		bb := r.RegionInfo.BoundingBox
		concepts = append(concepts, domain.Concept{
			Name:  top.Name,
			Score: top.Value,
			Box:   &domain.BoundingBox{Top: bb.TopRow, Left: bb.LeftCol, Bottom: bb.BottomRow, Right: bb.RightCol},
		})
	}
	return concepts, nil
}

func (c *Client) predict(ctx context.Context, model string, image []byte) (output, error) {
	body, err := json.Marshal(request{Inputs: []input{{Data: inputData{Image: imageData{Base64: base64.StdEncoding.EncodeToString(image)}}}}})
	if err != nil {
		return output{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/%s/outputs", c.baseURL, model), bytes.NewReader(body))
	if err != nil {
		return output{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return output{}, fmt.Errorf("clarifai %s request: %w", model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return output{}, fmt.Errorf("clarifai API error: status %d: %s", resp.StatusCode, msg)
	}

	var decoded response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return output{}, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Outputs) == 0 {
		return output{}, fmt.Errorf("clarifai %s: response has no outputs", model)
	}
	return decoded.Outputs[0], nil
}

// Clarifai API request and response types.

type request struct {
	Inputs []input `json:"inputs"`
}

type input struct {
	Data inputData `json:"data"`
}

type inputData struct {
	Image imageData `json:"image"`
}

type imageData struct {
	Base64 string `json:"base64"`
}

type response struct {
	Outputs []output `json:"outputs"`
}

type output struct {
	Data struct {
		Concepts []concept `json:"concepts"`
		Regions  []region  `json:"regions"`
	} `json:"data"`
}

type concept struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type region struct {
	RegionInfo struct {
		BoundingBox struct {
			TopRow    float64 `json:"top_row"`
			LeftCol   float64 `json:"left_col"`
			BottomRow float64 `json:"bottom_row"`
			RightCol  float64 `json:"right_col"`
		} `json:"bounding_box"`
	} `json:"region_info"`
	Data struct {
		Concepts []concept `json:"concepts"`
	} `json:"data"`
}
