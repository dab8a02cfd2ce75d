package notify

import (
	"fmt"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

type SMSSender struct {
	client *twilio.RestClient
	from   string
}

func NewSMSSender(accountSID, authToken, from string) *SMSSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &SMSSender{client: client, from: from}
}

func (s *SMSSender) Send(to, message string) error {
	params := &api.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(message)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("send sms to %s: %w", to, err)
	}
	return nil
}

// BookingAcceptedMessage renders the SMS sent to the rider when a driver
// accepts.
func BookingAcceptedMessage(driverName string) string {
	if driverName == "" {
		return "Your driver has accepted the booking and is on the way."
	}
	return fmt.Sprintf("%s has accepted your booking and is on the way.", driverName)
}
