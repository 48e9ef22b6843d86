package mailer

type Service interface {
	SendPasswordReset(toEmail, toName, resetURL, token string) error
}
