package mail

import (
	"errors"
	"fmt"
	"os"

	hermes "github.com/matcornic/hermes/v2"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var product = hermes.Hermes{
	Product: hermes.Product{
		Name: "Linkup",
		Link: "https://linkup.example.com/",
	},
}

// SendResetPassword emails a password-reset link containing the token.
func SendResetPassword(toEmail, token string) error {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" {
		return errors.New("SENDGRID_API_KEY is not set")
	}

	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:3000"
	}
	resetLink := fmt.Sprintf("%s/password/reset?token=%s", appURL, token)

	email := hermes.Email{
		Body: hermes.Body{
			Intros: []string{
				"You requested a password reset for your Linkup account.",
			},
			Actions: []hermes.Action{
				{
					Instructions: "Click the button below to choose a new password:",
					Button: hermes.Button{
						Text: "Reset your password",
						Link: resetLink,
					},
				},
			},
			Outros: []string{
				"If you did not request a password reset, you can safely ignore this email.",
			},
		},
	}

	htmlBody, err := product.GenerateHTML(email)
	if err != nil {
		return err
	}
	textBody, err := product.GeneratePlainText(email)
	if err != nil {
		return err
	}

	from := sgmail.NewEmail("Linkup", senderAddress())
	to := sgmail.NewEmail("", toEmail)
	message := sgmail.NewSingleEmail(from, "Reset your Linkup password", to, textBody, htmlBody)

	client := sendgrid.NewSendClient(apiKey)
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected the email: status %d", response.StatusCode)
	}
	return nil
}

func senderAddress() string {
	if addr := os.Getenv("MAIL_FROM"); addr != "" {
		return addr
	}
	return "no-reply@linkup.example.com"
}
