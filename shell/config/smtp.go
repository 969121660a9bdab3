package config

import "os"

// SMTPAddr returns the address of the mail relay used for subscriber
// notifications, overridable through LOANSERVICE_SMTP_ADDR.
func SMTPAddr() string {
	if addr := os.Getenv("LOANSERVICE_SMTP_ADDR"); addr != "" {
		return addr
	}

	return "localhost:25"
}

// SMTPFrom returns the sender address for outgoing notification mails,
// overridable through LOANSERVICE_SMTP_FROM.
func SMTPFrom() string {
	if from := os.Getenv("LOANSERVICE_SMTP_FROM"); from != "" {
		return from
	}

	return "library@localhost"
}
