package advisor

import (
	"encoding/json"
	"errors"

	"github.com/Egham-7/embedding-advisor/internal/models"
	"github.com/Egham-7/embedding-advisor/internal/services"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go/v2"
	"google.golang.org/genai"
)

// transportError converts a failed generation call into a transport AppError
// carrying the upstream status and body when one was received
func transportError(provider string, err error) error {
	if err == nil {
		return nil
	}

	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return models.NewTransportError(provider, apiErr.Code, genaiErrorBody(apiErr), err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return models.NewTransportError(provider, apiErrPtr.Code, genaiErrorBody(*apiErrPtr), err)
	}

	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		body := openaiErr.RawJSON()
		if body == "" {
			body = openaiErr.Message
		}
		return models.NewTransportError(provider, openaiErr.StatusCode, body, err)
	}

	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return models.NewTransportError(provider, anthropicErr.StatusCode, anthropicErr.RawJSON(), err)
	}

	var statusErr *services.StatusError
	if errors.As(err, &statusErr) {
		return models.NewTransportError(provider, statusErr.StatusCode, statusErr.Body, err)
	}

	return models.NewTransportError(provider, 0, "", err)
}

func genaiErrorBody(apiErr genai.APIError) string {
	body, err := json.Marshal(map[string]any{"error": apiErr})
	if err != nil {
		return apiErr.Message
	}
	return string(body)
}
