package llm

import (
	"context"
	"errors"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient calls the OpenAI chat completion API to classify symptom
// submissions. API credentials and the model name are loaded from
// environment variables.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient constructs an OpenAI-backed classifier client. It reads
// the API key and model name from the environment and falls back to a
// sensible default model.
func NewOpenAIClient() *OpenAIClient {
	apiKey := os.Getenv("OPENAI_API_KEY")
	c := openai.NewClient(apiKey)

	model := os.Getenv("OPENAI_MODEL_TRIAGE")
	if model == "" {
		// default to a modern small model with vision support; can be
		// overridden via env
		model = "gpt-4o-mini"
	}
	return &OpenAIClient{client: c, model: model}
}

// Classify sends the rendered triage prompt (plus an optional image
// reference) and returns the model's raw response, which the request
// forces into JSON-object mode. The caller bounds the wait via ctx and
// owns validation of the payload.
func (c *OpenAIClient) Classify(ctx context.Context, prompt, imageRef string) ([]byte, error) {
	if c.client == nil {
		return nil, errors.New("openai client not initialized")
	}

	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if imageRef != "" {
		msg.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    imageRef,
					Detail: openai.ImageURLDetailAuto,
				},
			},
		}
	} else {
		msg.Content = prompt
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    []openai.ChatCompletionMessage{msg},
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("empty completion response")
	}
	return []byte(resp.Choices[0].Message.Content), nil
}
