package utils

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Interpreter produces a prose interpretation for a drawn spread.
// Implementations are best-effort: callers must treat an error as "no
// interpretation", never as a failed reading.
type Interpreter interface {
	Interpret(ctx context.Context, spreadName, question string, cards []string) (string, error)
}

type openAIInterpreter struct {
	client *openai.Client
}

// NewOpenAIInterpreter returns nil when no API key is configured; callers
// handle the nil as "interpretation disabled".
func NewOpenAIInterpreter(apiKey string) Interpreter {
	if apiKey == "" {
		return nil
	}
	return &openAIInterpreter{client: openai.NewClient(apiKey)}
}

func (o *openAIInterpreter) Interpret(ctx context.Context, spreadName, question string, cards []string) (string, error) {
	prompt := fmt.Sprintf(
		"You are a thoughtful tarot reader. The querent asked: %q.\n"+
			"Spread: %s. Cards in order: %s.\n"+
			"Write a short, warm interpretation (under 200 words) tying the cards to the question.",
		question, spreadName, strings.Join(cards, "; "),
	)

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}
