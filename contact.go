package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/joaogabrielsantos/portfolio/internal/i18n"
)

var errSMTPNotConfigured = errors.New("SMTP credentials not configured")

// Mailer delivers contact form messages.
type Mailer interface {
	Send(name, email, message string) error
}

type smtpMailer struct {
	cfg SMTPConfig
}

func (m smtpMailer) Send(name, email, message string) error {
	if m.cfg.User == "" || m.cfg.Pass == "" {
		return errSMTPNotConfigured
	}
	to := m.cfg.ToEmail
	if to == "" {
		to = m.cfg.User
	}

	subject := fmt.Sprintf("Portfolio Contact: %s", name)
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, name, email, message)

	msg := []byte("To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"From: " + m.cfg.User + "\r\n" +
		"Reply-To: " + email + "\r\n" +
		"\r\n" +
		body + "\r\n")

	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	if err := smtp.SendMail(m.cfg.Host+":"+m.cfg.Port, auth, m.cfg.User, []string{to}, msg); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}

// headerSafe drops line breaks so form input cannot add mail headers.
func headerSafe(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (s *server) setupContactRoutes(r *gin.Engine) {
	// HTMX Contact form endpoint - returns just the form HTML
	r.GET("/contact-form", func(c *gin.Context) {
		lang, _ := i18n.Resolve(c.Request)
		c.HTML(http.StatusOK, "contact.html", gin.H{
			"T": s.content.Site().Dictionary(lang).Contact,
		})
	})

	// Handle contact form submission with HTMX
	r.POST("/contact", func(c *gin.Context) {
		lang, _ := i18n.Resolve(c.Request)
		t := s.content.Site().Dictionary(lang).Contact

		name := headerSafe(c.PostForm("fullName"))
		email := strings.TrimSpace(c.PostForm("email"))
		message := strings.TrimSpace(c.PostForm("message"))

		addr, err := mail.ParseAddress(email)
		if name == "" || message == "" || err != nil {
			c.HTML(http.StatusUnprocessableEntity, "contact-error.html", gin.H{"error": t.Invalid})
			return
		}

		if err := s.mailer.Send(name, addr.Address, message); err != nil {
			log.Printf("Error sending contact email: %v", err)
			c.HTML(http.StatusOK, "contact-error.html", gin.H{"error": t.Failed})
			return
		}

		log.Printf("Contact email sent from %s", s.hashIP(c.ClientIP()))
		c.HTML(http.StatusOK, "contact-success.html", gin.H{"success": t.Sent})
	})
}
