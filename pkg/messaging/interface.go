package messaging

import (
	"context"
	"strconv"
	"strings"
)

// Provider delivers template messages to a phone number.
type Provider interface {
	SendTemplate(ctx context.Context, message *TemplateMessage) (*MessageResponse, error)
	Name() string
}

// TemplateMessage names a pre-approved template and its positional
// parameters. Text is the rendered body used by channels without templates.
type TemplateMessage struct {
	To         string   `json:"to"`
	TemplateID string   `json:"template_id"`
	Params     []string `json:"params"`
	Text       string   `json:"text"`
}

type MessageResponse struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// Render replaces {{1}}, {{2}}, ... in text with params in order.
func Render(text string, params []string) string {
	for i, p := range params {
		text = strings.ReplaceAll(text, "{{"+strconv.Itoa(i+1)+"}}", p)
	}
	return text
}
