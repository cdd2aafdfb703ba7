// Package smtpingress runs a small SMTP server that triages every message
// it receives, tags it with the verdict headers and optionally relays the
// tagged message to an upstream MTA.
package smtpingress

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"github.com/mikey/llm-email-triage/internal/config"
	"github.com/mikey/llm-email-triage/internal/core"
	"go.uber.org/zap"
)

// Ingress is the SMTP entry point for the triage pipeline
type Ingress struct {
	pipeline         *core.Pipeline
	logger           *zap.Logger
	server           *smtp.Server
	listenAddr       string
	relayAddr        string
	categoryHeader   string
	confidenceHeader string
	tierHeader       string
}

// NewIngress creates a new SMTP ingress
func NewIngress(pipeline *core.Pipeline, cfg config.SMTPConfig, logger *zap.Logger) *Ingress {
	return &Ingress{
		pipeline:         pipeline,
		logger:           logger,
		listenAddr:       cfg.ListenAddress,
		relayAddr:        cfg.RelayAddress,
		categoryHeader:   cfg.CategoryHeader,
		confidenceHeader: cfg.ConfidenceHeader,
		tierHeader:       cfg.TierHeader,
	}
}

// Start starts the SMTP server in a background goroutine
func (i *Ingress) Start() error {
	i.server = smtp.NewServer(&smtpBackend{ingress: i})

	i.server.Addr = i.listenAddr
	i.server.Domain = "localhost"
	i.server.ReadTimeout = 30 * time.Second
	i.server.WriteTimeout = 30 * time.Second
	i.server.MaxMessageBytes = 10 * 1024 * 1024
	i.server.MaxRecipients = 50
	i.server.AllowInsecureAuth = true

	i.logger.Info("SMTP ingress starting", zap.String("address", i.listenAddr))

	go func() {
		if err := i.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				i.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP server
func (i *Ingress) Stop() error {
	if i.server != nil {
		return i.server.Close()
	}
	return nil
}

// relay forwards the tagged message to the upstream MTA
func (i *Ingress) relay(sender string, recipients []string, data []byte) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", i.relayAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to relay: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			i.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			recipientOK = true
		}
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		i.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	ingress *Ingress
}

func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		ingress:    b.ingress,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	ingress    *Ingress
	sender     string
	recipients []string
}

func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data triages the message, prepends the verdict headers and relays the
// result. A message that cannot be parsed or triaged is never bounced; it
// is relayed untagged instead. Only a failed relay is reported back so the
// sending MTA retries.
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.ingress.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		s.ingress.logger.Error("Failed to parse message, passing through untagged", zap.Error(err))
		return s.passThrough(rawData)
	}

	body, err := io.ReadAll(msg.Body)
	if err != nil {
		s.ingress.logger.Error("Failed to read message body, passing through untagged", zap.Error(err))
		return s.passThrough(rawData)
	}

	email := &core.Email{
		ID:        uuid.NewString(),
		Content:   extractPlainText(msg.Header, body),
		Subject:   msg.Header.Get("Subject"),
		Sender:    s.sender,
		Timestamp: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var tagged bytes.Buffer
	result, err := s.ingress.pipeline.Process(ctx, email, nil)
	if err != nil {
		s.ingress.logger.Error("Failed to triage message",
			zap.Error(err),
			zap.String("sender", s.sender))
	} else {
		fmt.Fprintf(&tagged, "%s: %s\r\n", s.ingress.categoryHeader, result.Category)
		if result.Confidence != nil {
			fmt.Fprintf(&tagged, "%s: %.4f\r\n", s.ingress.confidenceHeader, *result.Confidence)
		}
		fmt.Fprintf(&tagged, "%s: %s\r\n", s.ingress.tierHeader, result.Tier)

		s.ingress.logger.Info("Triaged inbound message",
			zap.String("sender", s.sender),
			zap.String("sender_domain", senderDomain(s.sender)),
			zap.String("category", string(result.Category)),
			zap.String("tier", result.Tier))
	}

	for key, values := range msg.Header {
		for _, value := range values {
			fmt.Fprintf(&tagged, "%s: %s\r\n", key, value)
		}
	}
	fmt.Fprintf(&tagged, "\r\n")
	tagged.Write(body)

	if s.ingress.relayAddr == "" {
		s.ingress.logger.Warn("No relay configured, dropping tagged message",
			zap.String("sender", s.sender),
			zap.Strings("recipients", s.recipients))
		return nil
	}

	if err := s.ingress.relay(s.sender, s.recipients, tagged.Bytes()); err != nil {
		s.ingress.logger.Error("Failed to relay message",
			zap.Error(err),
			zap.String("sender", s.sender))
		return err
	}
	return nil
}

// passThrough relays the message exactly as received
func (s *smtpSession) passThrough(rawData []byte) error {
	if s.ingress.relayAddr == "" {
		s.ingress.logger.Warn("No relay configured, dropping message",
			zap.String("sender", s.sender),
			zap.Strings("recipients", s.recipients))
		return nil
	}
	if err := s.ingress.relay(s.sender, s.recipients, rawData); err != nil {
		s.ingress.logger.Error("Failed to relay message",
			zap.Error(err),
			zap.String("sender", s.sender))
		return err
	}
	return nil
}

func (s *smtpSession) Logout() error {
	return nil
}

// senderDomain is used for log fields only
func senderDomain(addr string) string {
	if parts := strings.Split(addr, "@"); len(parts) == 2 {
		return parts[1]
	}
	return "unknown"
}
