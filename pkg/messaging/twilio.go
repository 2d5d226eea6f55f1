package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

const whatsAppPrefix = "whatsapp:"

// TwilioWhatsAppProvider sends WhatsApp content templates through Twilio.
type TwilioWhatsAppProvider struct {
	client     *twilio.RestClient
	fromNumber string
}

func NewTwilioWhatsAppProvider(accountSID, authToken, fromNumber string) *TwilioWhatsAppProvider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioWhatsAppProvider{
		client:     client,
		fromNumber: fromNumber,
	}
}

func (t *TwilioWhatsAppProvider) Name() string { return "twilio" }

func (t *TwilioWhatsAppProvider) SendTemplate(ctx context.Context, message *TemplateMessage) (*MessageResponse, error) {
	params := &api.CreateMessageParams{}
	params.SetTo(WhatsAppAddress(message.To))
	params.SetFrom(WhatsAppAddress(t.fromNumber))

	if message.TemplateID != "" {
		variables, err := ContentVariables(message.Params)
		if err != nil {
			return &MessageResponse{Status: "failed", Error: err.Error()}, err
		}
		params.SetContentSid(message.TemplateID)
		params.SetContentVariables(variables)
	} else {
		params.SetBody(message.Text)
	}

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return &MessageResponse{
			Status: "failed",
			Error:  err.Error(),
		}, fmt.Errorf("failed to send WhatsApp message: %w", err)
	}

	out := &MessageResponse{Status: "queued"}
	if resp.Sid != nil {
		out.MessageID = *resp.Sid
	}
	if resp.Status != nil {
		out.Status = string(*resp.Status)
	}
	return out, nil
}

// WhatsAppAddress prefixes a phone number with the whatsapp: channel.
func WhatsAppAddress(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, whatsAppPrefix) {
		return phone
	}
	return whatsAppPrefix + phone
}

// ContentVariables encodes positional params as Twilio expects them:
// {"1": "...", "2": "..."}.
func ContentVariables(params []string) (string, error) {
	vars := make(map[string]string, len(params))
	for i, p := range params {
		vars[strconv.Itoa(i+1)] = p
	}
	data, err := json.Marshal(vars)
	if err != nil {
		return "", fmt.Errorf("failed to encode content variables: %w", err)
	}
	return string(data), nil
}
