package messaging

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snsTypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// AWSSNSProvider falls back to plain SMS, sending the rendered text.
type AWSSNSProvider struct {
	client *sns.Client
	region string
}

func NewAWSSNSProvider(ctx context.Context, region string) (*AWSSNSProvider, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSNSProvider{
		client: sns.NewFromConfig(cfg),
		region: region,
	}, nil
}

func (a *AWSSNSProvider) Name() string { return "sns" }

func (a *AWSSNSProvider) SendTemplate(ctx context.Context, message *TemplateMessage) (*MessageResponse, error) {
	text := message.Text
	if text == "" {
		text = strings.Join(message.Params, " ")
	}

	input := &sns.PublishInput{
		PhoneNumber: aws.String(strings.TrimPrefix(message.To, whatsAppPrefix)),
		Message:     aws.String(text),
		MessageAttributes: map[string]snsTypes.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Transactional"),
			},
		},
	}

	resp, err := a.client.Publish(ctx, input)
	if err != nil {
		return &MessageResponse{
			Status: "failed",
			Error:  err.Error(),
		}, fmt.Errorf("failed to publish SMS: %w", err)
	}

	return &MessageResponse{
		MessageID: aws.ToString(resp.MessageId),
		Status:    "sent",
	}, nil
}
