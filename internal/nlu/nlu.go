package nlu

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
)

const systemPrompt = `
You are the NeuroTask voice assistant.
Reply to the user's utterance in one or two short spoken sentences.

RULES:
1. Plain text only. No markdown, lists or emoji.
2. Keep it under 40 words, it will be read aloud.
3. If you do not know something, say so briefly.
`

// Completer sends one user utterance to a chat model and returns its reply.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type OpenAI struct {
	client openai.Client
	model  openai.ChatModel
}

func NewOpenAI(client openai.Client, model string) *OpenAI {
	m := openai.ChatModelGPT5Nano
	if model != "" {
		m = openai.ChatModel(model)
	}
	return &OpenAI{client: client, model: m}
}

func (o *OpenAI) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model: o.model,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("empty message content")
	}

	log.Debug("Chat reply", "data", content)
	return content, nil
}

// ChatResponder runs the keyword rules first and only asks the chat model
// about utterances that would otherwise get the echo reply.
type ChatResponder struct {
	Rules   *Dispatcher
	Chat    Completer
	Timeout time.Duration
}

func (c *ChatResponder) Respond(text string) string {
	intent, reply := c.Rules.Match(text)
	if intent != IntentFallback || c.Chat == nil {
		return reply
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	out, err := c.Chat.Complete(ctx, systemPrompt, text)
	if err != nil {
		log.Warn("Chat fallback failed, echoing", "err", err)
		return reply
	}

	return out
}
