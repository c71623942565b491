// Package notify delivers match alerts to professionals over push,
// SMS, and email.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	commonerrors "tender-engine/internal/common/errors"
	"tender-engine/internal/models"
)

// Payload is everything a transport needs to deliver one alert.
type Payload struct {
	Channel        models.NotificationChannel
	TenderID       string
	TenderTitle    string
	TenderCategory string
	TenderCity     string
	ProfessionalID string
	RecipientName  string
	Phone          string
	Email          string
	DeviceARN      string
	Score          int
}

// Transport delivers an alert over the payload's channel.
type Transport interface {
	Send(ctx context.Context, p Payload) error
}

// ChannelFor picks the delivery channel from presence alone: push
// reaches a live device, everyone else falls back to SMS. Email stays
// reserved for digests.
func ChannelFor(status models.ProfessionalStatus) models.NotificationChannel {
	if status.Reachable() {
		return models.ChannelPush
	}
	return models.ChannelSMS
}

// Interfaces for mocking the AWS clients.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// AWSTransport sends push and SMS through SNS and email through SES.
type AWSTransport struct {
	snsClient   SNSService
	sesClient   SESService
	fromEmail   string
	smsSenderID string
}

func NewAWSTransport(snsClient SNSService, sesClient SESService, fromEmail, smsSenderID string) *AWSTransport {
	return &AWSTransport{
		snsClient:   snsClient,
		sesClient:   sesClient,
		fromEmail:   fromEmail,
		smsSenderID: smsSenderID,
	}
}

func (t *AWSTransport) Send(ctx context.Context, p Payload) error {
	subject, body := RenderMessage(p)

	var err error
	switch p.Channel {
	case models.ChannelPush:
		err = t.sendPush(ctx, p.DeviceARN, body)
	case models.ChannelSMS:
		err = t.sendSMS(ctx, p.Phone, body)
	case models.ChannelEmail:
		err = t.sendEmail(ctx, p.Email, subject, body)
	default:
		err = fmt.Errorf("unknown channel: %s", p.Channel)
	}

	if err != nil {
		return commonerrors.NewUpstream(commonerrors.CodeSendFailure, string(p.Channel), err)
	}
	return nil
}

func (t *AWSTransport) sendPush(ctx context.Context, targetARN, message string) error {
	if targetARN == "" {
		return fmt.Errorf("professional has no registered device")
	}
	_, err := t.snsClient.Publish(ctx, &sns.PublishInput{
		TargetArn: aws.String(targetARN),
		Message:   aws.String(message),
	})
	return err
}

func (t *AWSTransport) sendSMS(ctx context.Context, phone, message string) error {
	if phone == "" {
		return fmt.Errorf("professional has no phone number")
	}
	input := &sns.PublishInput{
		PhoneNumber: aws.String(phone),
		Message:     aws.String(message),
	}
	if t.smsSenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(t.smsSenderID),
			},
		}
	}
	_, err := t.snsClient.Publish(ctx, input)
	return err
}

func (t *AWSTransport) sendEmail(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("professional has no email address")
	}
	_, err := t.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(t.fromEmail),
	})
	return err
}
