package utils

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

var sesClient *ses.Client

// InitMailer sets up the SES client. Call it from main; when it never ran
// (tests, local dev without AWS) the senders silently do nothing.
func InitMailer() error {
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		return err
	}
	sesClient = ses.NewFromConfig(cfg)
	return nil
}

// generic SES sender
func sendEmail(to string, subject string, body string) error {
	if sesClient == nil {
		return nil
	}
	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(body),
				},
			},
		},
		Source: aws.String(os.Getenv("SES_FROM_ADDRESS")),
	}
	_, err := sesClient.SendEmail(context.TODO(), input)
	return err
}

// SendPlanBlockNotice tells the plan owner the plan was locked pending
// payment, or unlocked after it cleared.
func SendPlanBlockNotice(to, planTitle string, blocked bool) error {
	if blocked {
		return sendEmail(to,
			"Your meal plan is locked",
			fmt.Sprintf("Your plan %q is locked until payment is completed.", planTitle))
	}
	return sendEmail(to,
		"Your meal plan is active",
		fmt.Sprintf("Payment received — your plan %q is now unlocked and reminders are active.", planTitle))
}
