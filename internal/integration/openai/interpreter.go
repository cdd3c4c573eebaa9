// Package openai interprets free-text questions about water quality into bot commands
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/abelzeko/water-quality-bot/internal/logging"
)

// Commands the interpreter may choose
const (
	CommandPredict          = "Predict"
	CommandTrend            = "Trend"
	CommandListMeasurements = "ListMeasurements"
	CommandGeneralQuery     = "GeneralQuery"
)

// QueryResponse defines the structured output of the model
type QueryResponse struct {
	CommandName string  `json:"command_name" jsonschema_description:"One of Predict, Trend, ListMeasurements or GeneralQuery"`
	Value       float64 `json:"value" jsonschema_description:"Prediction horizon amount for Predict, otherwise 0"`
	Unit        string  `json:"unit" jsonschema_description:"Prediction horizon unit for Predict (minutes, hours, days, weeks, months, years), otherwise empty"`
	UserMessage string  `json:"user_message" jsonschema_description:"A short message to show back to the user in their original language"`
}

// QueryInterpreter turns a user's free text into a command
type QueryInterpreter interface {
	Interpret(ctx context.Context, userMessage string, units []string) (*QueryResponse, error)
}

type interpreterImpl struct {
	client openai.Client
	model  openai.ChatModel
	schema interface{}
	logger *logging.Logger
}

// GenerateSchema generates a JSON schema for a given type.
func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// NewQueryInterpreter creates an interpreter backed by the chat completions API
func NewQueryInterpreter(apiKey, model string, logger *logging.Logger) (QueryInterpreter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is not set")
	}
	chatModel := openai.ChatModel(model)
	if model == "" {
		chatModel = openai.ChatModelGPT4o
	}
	if logger == nil {
		logger = logging.Global()
	}

	return &interpreterImpl{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  chatModel,
		schema: GenerateSchema[QueryResponse](),
		logger: logger.With("component", "openai"),
	}, nil
}

func systemPrompt(units []string) string {
	return fmt.Sprintf(`You are the assistant of a water-quality monitoring bot. The bot stores dissolved oxygen, turbidity and pH measurements and fits a linear trend to dissolved oxygen.

Decide which command answers the user:
1. The user asks what dissolved oxygen will be after some time:
   - command_name = "Predict"
   - value = the amount of time (a positive number), unit = one of: %s
2. The user asks whether oxygen is rising or falling, or for the trend:
   - command_name = "Trend", value = 0, unit = ""
3. The user asks to see the stored data:
   - command_name = "ListMeasurements", value = 0, unit = ""
4. Anything else:
   - command_name = "GeneralQuery", value = 0, unit = ""

user_message: one short sentence in the user's language.

Output strictly in JSON.`, strings.Join(units, ", "))
}

// Interpret sends the message to the model and returns the structured response
func (s *interpreterImpl) Interpret(ctx context.Context, userMessage string, units []string) (*QueryResponse, error) {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "query_response",
		Description: openai.String("Command chosen for the user's question"),
		Schema:      s.schema,
		Strict:      openai.Bool(true),
	}

	chat, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(units)),
			openai.UserMessage(userMessage),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
		},
		Model: s.model,
	})
	if err != nil {
		return nil, fmt.Errorf("error calling OpenAI API: %w", err)
	}

	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return nil, errors.New("received empty response from OpenAI")
	}

	resp, err := decodeResponse(chat.Choices[0].Message.Content)
	if err != nil {
		s.logger.Warn("Failed to decode OpenAI response", "error", err, "raw", chat.Choices[0].Message.Content)
		return nil, err
	}
	return resp, nil
}

func decodeResponse(content string) (*QueryResponse, error) {
	var resp QueryResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return nil, fmt.Errorf("error unmarshalling OpenAI response: %w", err)
	}
	switch resp.CommandName {
	case CommandPredict, CommandTrend, CommandListMeasurements, CommandGeneralQuery:
	default:
		return nil, fmt.Errorf("unexpected command %q in OpenAI response", resp.CommandName)
	}
	return &resp, nil
}
