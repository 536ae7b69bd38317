package models

import (
	"google.golang.org/genai"
)

// GenerationRequest is a fully specified request to the generative model service.
// It uses the genai SDK types directly so it can be handed to the SDK as-is.
type GenerationRequest struct {
	Model    string                       `json:"model,omitzero"`
	Contents []*genai.Content             `json:"contents,omitzero"`
	Config   *genai.GenerateContentConfig `json:"config,omitzero"`

	// Kept alongside the SDK request for logging, caching and history.
	Task        Task   `json:"task"`
	Description string `json:"description"`
}

// GeminiGenerationConfig is the generationConfig block of the REST payload
type GeminiGenerationConfig struct {
	ResponseMIMEType string        `json:"responseMimeType"`
	ResponseSchema   *genai.Schema `json:"responseSchema,omitempty"`
	Temperature      *float32      `json:"temperature,omitempty"`
}

// GeminiPayload is the JSON body accepted by the generateContent REST endpoint
type GeminiPayload struct {
	Contents          []*genai.Content       `json:"contents"`
	SystemInstruction *genai.Content         `json:"systemInstruction,omitempty"`
	GenerationConfig  GeminiGenerationConfig `json:"generationConfig"`
}

// Payload converts the request into the REST wire body
func (r *GenerationRequest) Payload() *GeminiPayload {
	payload := &GeminiPayload{Contents: r.Contents}
	if r.Config != nil {
		payload.SystemInstruction = r.Config.SystemInstruction
		payload.GenerationConfig = GeminiGenerationConfig{
			ResponseMIMEType: r.Config.ResponseMIMEType,
			ResponseSchema:   r.Config.ResponseSchema,
			Temperature:      r.Config.Temperature,
		}
	}
	return payload
}

// SystemText returns the concatenated text of the system instruction
func (r *GenerationRequest) SystemText() string {
	if r.Config == nil {
		return ""
	}
	return contentText(r.Config.SystemInstruction)
}

// UserText returns the concatenated text of all user contents
func (r *GenerationRequest) UserText() string {
	var text string
	for _, content := range r.Contents {
		text += contentText(content)
	}
	return text
}

func contentText(content *genai.Content) string {
	if content == nil {
		return ""
	}
	var text string
	for _, part := range content.Parts {
		if part != nil {
			text += part.Text
		}
	}
	return text
}
