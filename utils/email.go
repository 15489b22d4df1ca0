package utils

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

// SendPasswordResetEmail delivers the reset link via the configured SMTP
// relay. Returns false on any failure so the caller can report emailSent.
func SendPasswordResetEmail(to, resetToken string) bool {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	username := os.Getenv("SMTP_USERNAME")
	password := os.Getenv("SMTP_PASSWORD")
	from := os.Getenv("SMTP_FROM")

	if host == "" || port == "" || from == "" {
		log.Println("email: SMTP env vars not configured, skipping send")
		return false
	}

	resetURL := os.Getenv("FRONTEND_URL") + "/reset-password?token=" + resetToken

	msg := []byte("To: " + to + "\r\n" +
		"From: " + from + "\r\n" +
		"Subject: Reset your GharBazaar password\r\n" +
		"\r\n" +
		"Use the link below to reset your password. It expires in 10 minutes.\r\n\r\n" +
		resetURL + "\r\n")

	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	if err := smtp.SendMail(fmt.Sprintf("%s:%s", host, port), auth, from, []string{to}, msg); err != nil {
		log.Printf("email: failed to send password reset to %s: %v", to, err)
		return false
	}
	return true
}
