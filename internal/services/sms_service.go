package services

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/ienerzy/auth-service/internal/config"
	"github.com/ienerzy/auth-service/internal/utils"
)

// SMSService delivers one-time codes over SMS. Delivery failure is reported
// as utils.ErrExternalServiceFailure so the login flow can degrade to
// returning the code in the response instead of hard-failing.
type SMSService interface {
	SendOTP(ctx context.Context, phone, code string) error
}

type smsService struct {
	client    *twilio.RestClient
	fromPhone string
	sandbox   bool
}

func NewSMSService(cfg *config.Config) SMSService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	return &smsService{
		client:    client,
		fromPhone: cfg.TwilioFromPhone,
		sandbox:   cfg.SMSSandboxMode,
	}
}

func (s *smsService) SendOTP(ctx context.Context, phone, code string) error {
	if s.sandbox {
		utils.Logger.Infof("SMS sandbox mode: OTP for %s is %s", phone, code)
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(phone)
	params.SetFrom(s.fromPhone)
	params.SetBody(fmt.Sprintf("Your Ienerzy login code is %s. It expires in 5 minutes.", code))

	_, err := s.client.Api.CreateMessage(params)
	if err != nil {
		utils.Logger.WithError(err).Errorf("Failed to send OTP SMS to %s via Twilio", phone)
		return fmt.Errorf("%w: failed to send sms via twilio: %v", utils.ErrExternalServiceFailure, err)
	}
	return nil
}
