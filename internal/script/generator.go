package script

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/dmarier/shortreel/internal/logging"
)

// ErrContentGeneration marks a failed or exhausted script generation attempt.
var ErrContentGeneration = errors.New("content generation failed")

const (
	maxAttempts = 3
	// recentFactLimit bounds how many prior facts enter the prompt.
	recentFactLimit = 3
	// wordsPerSecond approximates a narration speech rate (~150 wpm).
	wordsPerSecond = 2.5
)

// Script is one generated narration script.
type Script struct {
	Topic             string
	Hook              string
	Fact              string
	Explanation       string
	CTA               string
	FullText          string
	WordCount         int
	EstimatedDuration float64
}

// scriptResponse is the structured output contract for the LLM call.
type scriptResponse struct {
	Hook        string `json:"hook" jsonschema_description:"Attention-grabbing opener, 12 words max"`
	Fact        string `json:"fact" jsonschema_description:"One surprising, verifiable fact, 25 words max"`
	Explanation string `json:"explanation" jsonschema_description:"Brief explanation of why the fact is true, 30 words max"`
	CTA         string `json:"cta" jsonschema_description:"Call to action for the viewer, 12 words max"`
}

// GenerateSchema generates a JSON schema for structured outputs.
func GenerateSchema[T any]() interface{} {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

var scriptResponseSchema = GenerateSchema[scriptResponse]()

// FactStore is the persistence seam used to avoid repeating facts across runs.
type FactStore interface {
	Recent(ctx context.Context, topic string, limit int) ([]string, error)
	IsDuplicate(ctx context.Context, topic, fact string) (bool, error)
	Add(ctx context.Context, topic, fact string) error
}

// CompleteFunc produces the raw structured-output JSON for a prompt.
type CompleteFunc func(ctx context.Context, prompt string) (string, error)

// Generator produces fact scripts for short vertical videos.
type Generator struct {
	log      zerolog.Logger
	facts    FactStore
	topics   []string
	complete CompleteFunc
}

// New creates a Generator backed by the OpenAI API.
func New(apiKey, model string, topics []string, facts FactStore) (*Generator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.Wrap(ErrContentGeneration, "OPENAI_API_KEY is not set")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Generator{
		log:      logging.WithComponent("script"),
		facts:    facts,
		topics:   topics,
		complete: openAICompleter(client, model),
	}, nil
}

// NewWithCompleter creates a Generator with a custom completion backend.
func NewWithCompleter(topics []string, facts FactStore, complete CompleteFunc) *Generator {
	return &Generator{
		log:      logging.WithComponent("script"),
		facts:    facts,
		topics:   topics,
		complete: complete,
	}
}

// Generate produces a script about topic, picking a random topic from the
// configured list when topic is empty. Facts too similar to previously stored
// ones are rejected and regenerated, up to a bounded number of attempts.
func (g *Generator) Generate(ctx context.Context, topic string, rng *rand.Rand) (*Script, error) {
	if topic == "" {
		if len(g.topics) == 0 {
			return nil, errors.Wrap(ErrContentGeneration, "no topics configured")
		}
		topic = g.topics[rng.Intn(len(g.topics))]
	}

	recent, err := g.facts.Recent(ctx, topic, recentFactLimit)
	if err != nil {
		return nil, errors.Wrap(err, "load recent facts")
	}

	prompt := buildPrompt(topic, recent)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		g.log.Debug().Str("topic", topic).Int("attempt", attempt).Msg("generating script")

		raw, err := g.complete(ctx, prompt)
		if err != nil {
			return nil, errors.Wrapf(ErrContentGeneration, "attempt %d: %v", attempt, err)
		}

		var resp scriptResponse
		if err := json.Unmarshal([]byte(raw), &resp); err != nil {
			g.log.Warn().Err(err).Int("attempt", attempt).Msg("unparseable model response")
			continue
		}
		if strings.TrimSpace(resp.Fact) == "" || strings.TrimSpace(resp.Hook) == "" {
			g.log.Warn().Int("attempt", attempt).Msg("model response missing required sections")
			continue
		}

		dup, err := g.facts.IsDuplicate(ctx, topic, resp.Fact)
		if err != nil {
			return nil, errors.Wrap(err, "check duplicate fact")
		}
		if dup {
			g.log.Info().Str("fact", resp.Fact).Msg("duplicate fact, regenerating")
			continue
		}

		if err := g.facts.Add(ctx, topic, resp.Fact); err != nil {
			return nil, errors.Wrap(err, "store fact")
		}

		return assemble(topic, resp), nil
	}

	return nil, errors.Wrapf(ErrContentGeneration, "no usable script for %q after %d attempts", topic, maxAttempts)
}

func assemble(topic string, resp scriptResponse) *Script {
	parts := []string{resp.Hook, resp.Fact, resp.Explanation, resp.CTA}
	var kept []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	fullText := strings.Join(kept, " ")
	wordCount := len(strings.Fields(fullText))

	return &Script{
		Topic:             topic,
		Hook:              strings.TrimSpace(resp.Hook),
		Fact:              strings.TrimSpace(resp.Fact),
		Explanation:       strings.TrimSpace(resp.Explanation),
		CTA:               strings.TrimSpace(resp.CTA),
		FullText:          fullText,
		WordCount:         wordCount,
		EstimatedDuration: float64(wordCount) / wordsPerSecond,
	}
}

func buildPrompt(topic string, recentFacts []string) string {
	avoid := "None yet!"
	if len(recentFacts) > 0 {
		var lines []string
		for _, fact := range recentFacts {
			lines = append(lines, "- "+fact)
		}
		avoid = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(`Create a short vertical video script about %s.
Target: 30 seconds when spoken (70-80 words total).

Include:
1. Hook (max 12 words)
2. Interesting fact (max 25 words)
3. Brief explanation (max 30 words)
4. Call-to-action (max 12 words)

Avoid these facts:
%s

Keep it punchy, fast-paced, and engaging.`, topic, avoid)
}

func openAICompleter(client openai.Client, model string) CompleteFunc {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "fact_script",
		Description: openai.String("A narrated fact script for a short vertical video"),
		Schema:      scriptResponseSchema,
		Strict:      openai.Bool(true),
	}

	return func(ctx context.Context, prompt string) (string, error) {
		chatCompletion, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage("You are a viral short-form video creator. Create engaging, factual scripts that captivate viewers in the first 3 seconds."),
				openai.UserMessage(prompt),
			},
			Model: openai.ChatModel(model),
			ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
					JSONSchema: schemaParam,
				},
			},
		})
		if err != nil {
			return "", err
		}
		if len(chatCompletion.Choices) == 0 {
			return "", errors.New("no response from model")
		}
		raw := chatCompletion.Choices[0].Message.Content
		if raw == "" {
			return "", errors.Errorf("empty response, finish reason: %s", chatCompletion.Choices[0].FinishReason)
		}
		return raw, nil
	}
}
