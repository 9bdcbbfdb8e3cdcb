// Package gemini recognizes windows and doors in facade photos with a Gemini
// multimodal model.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
)

const DefaultModel = "gemini-1.5-flash"

const prompt = `You are inspecting a photo of a house facade.
List every window and every door you can see.
Reply with JSON only: an array of objects {"name": "window" | "door", "score": <confidence 0..1>}.
Use one object per visible opening. Reply [] when there are none.`

// generator is the subset of *genai.GenerativeModel used here.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Recognizer implements domain.Recognizer.
type Recognizer struct {
	client *genai.Client
	model  generator
}

// NewRecognizer opens a Gemini client. An empty model selects the default.
func NewRecognizer(ctx context.Context, apiKey, model string) (*Recognizer, error) {
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("genai client init failed: %w", err)
	}
	gm := client.GenerativeModel(model)
	gm.ResponseMIMEType = "application/json"
	return &Recognizer{client: client, model: gm}, nil
}

// Close releases the underlying client.
func (r *Recognizer) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *Recognizer) Recognize(ctx context.Context, image []byte) ([]domain.Concept, error) {
	resp, err := r.model.GenerateContent(ctx,
		genai.Text(prompt),
		genai.Blob{
			MIMEType: http.DetectContentType(image),
			Data:     image,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("no content returned from model")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("response part is not text, received %T", resp.Candidates[0].Content.Parts[0])
	}
	return parseConcepts(string(text))
}

// parseConcepts reads the model's JSON reply, tolerating a markdown fence.
func parseConcepts(reply string) ([]domain.Concept, error) {
	reply = strings.TrimSpace(reply)
	if strings.HasPrefix(reply, "```") {
		reply = strings.TrimPrefix(reply, "```json")
		reply = strings.TrimPrefix(reply, "```")
		reply = strings.TrimSuffix(reply, "```")
		reply = strings.TrimSpace(reply)
	}

	var items []struct {
		Name  string  `json:"name"`
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(reply), &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model reply: %w", err)
	}

	concepts := make([]domain.Concept, 0, len(items))
	for _, it := range items {
		if it.Name == "" {
			continue
		}
		concepts = append(concepts, domain.Concept{Name: strings.ToLower(it.Name), Score: it.Score})
	}
	return concepts, nil
}
