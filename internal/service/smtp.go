package service

import (
	"bitwise74/learning-api/config"
	"bytes"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

const dialTimeout = 10 * time.Second

// smtpDialer opens SMTP connections for gomail. Unlike gomail.Dialer a server
// that rejects STARTTLS gets a plain connection instead of an error, and
// credentials are sent whether or not the connection ended up encrypted.
type smtpDialer struct {
	Host     string
	Port     int
	Username string
	Password string
	// SSL selects implicit TLS, otherwise STARTTLS is tried when offered
	SSL       bool
	TLSConfig *tls.Config
	Timeout   time.Duration
}

func newDialer(cfg config.Mail) *smtpDialer {
	return &smtpDialer{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.User,
		Password: cfg.Password,
		SSL:      cfg.Port == 465,
		Timeout:  dialTimeout,
	}
}

type startTLSError struct {
	Err error
}

func (e *startTLSError) Error() string {
	return "starttls failed, " + e.Err.Error()
}

func (e *startTLSError) Unwrap() error {
	return e.Err
}

// Dial connects and authenticates. The returned SendCloser is used with
// gomail.Send.
func (d *smtpDialer) Dial() (gomail.SendCloser, error) {
	c, err := d.open(!d.SSL)

	var tlsErr *startTLSError
	if errors.As(err, &tlsErr) {
		zap.L().Warn("SMTP server rejected STARTTLS, continuing unencrypted",
			zap.String("host", d.Host),
			zap.Error(tlsErr.Err))
		c, err = d.open(false)
	}

	if err != nil {
		return nil, err
	}

	if err := d.auth(c); err != nil {
		c.Close()
		return nil, err
	}

	return &smtpSender{c: c}, nil
}

func (d *smtpDialer) DialAndSend(m ...*gomail.Message) error {
	s, err := d.Dial()
	if err != nil {
		return err
	}
	defer s.Close()

	return gomail.Send(s, m...)
}

func (d *smtpDialer) open(startTLS bool) (*smtp.Client, error) {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(d.Host, strconv.Itoa(d.Port)), d.Timeout)
	if err != nil {
		return nil, err
	}

	if d.SSL {
		conn = tls.Client(conn, d.tlsConfig())
	}

	c, err := smtp.NewClient(conn, d.Host)
	if err != nil {
		conn.Close()
		return nil, err
	}

	if startTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(d.tlsConfig()); err != nil {
				c.Close()
				return nil, &startTLSError{Err: err}
			}
		}
	}

	return c, nil
}

func (d *smtpDialer) tlsConfig() *tls.Config {
	if d.TLSConfig != nil {
		return d.TLSConfig
	}

	return &tls.Config{ServerName: d.Host}
}

func (d *smtpDialer) auth(c *smtp.Client) error {
	if d.Username == "" {
		return nil
	}

	ok, mechs := c.Extension("AUTH")
	if !ok {
		return nil
	}

	return c.Auth(pickAuth(mechs, d.Username, d.Password))
}

// pickAuth follows gomail's choice of mechanism.
func pickAuth(mechs, username, password string) smtp.Auth {
	switch {
	case strings.Contains(mechs, "CRAM-MD5"):
		return smtp.CRAMMD5Auth(username, password)
	case strings.Contains(mechs, "LOGIN") && !strings.Contains(mechs, "PLAIN"):
		return &loginAuth{username: username, password: password}
	default:
		return &plainAuth{username: username, password: password}
	}
}

// plainAuth is AUTH PLAIN without net/smtp's refusal to run over an
// unencrypted connection.
type plainAuth struct {
	username string
	password string
}

func (a *plainAuth) Start(*smtp.ServerInfo) (string, []byte, error) {
	return "PLAIN", []byte("\x00" + a.username + "\x00" + a.password), nil
}

func (a *plainAuth) Next(_ []byte, more bool) ([]byte, error) {
	if more {
		return nil, errors.New("unexpected server challenge")
	}

	return nil, nil
}

type loginAuth struct {
	username string
	password string
}

func (a *loginAuth) Start(*smtp.ServerInfo) (string, []byte, error) {
	return "LOGIN", nil, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}

	switch {
	case bytes.EqualFold(fromServer, []byte("Username:")):
		return []byte(a.username), nil
	case bytes.EqualFold(fromServer, []byte("Password:")):
		return []byte(a.password), nil
	default:
		return nil, fmt.Errorf("unexpected server challenge %q", fromServer)
	}
}

type smtpSender struct {
	c *smtp.Client
}

func (s *smtpSender) Send(from string, to []string, msg io.WriterTo) error {
	if err := s.c.Mail(from); err != nil {
		return err
	}

	for _, addr := range to {
		if err := s.c.Rcpt(addr); err != nil {
			return err
		}
	}

	w, err := s.c.Data()
	if err != nil {
		return err
	}

	if _, err := msg.WriteTo(w); err != nil {
		w.Close()
		return err
	}

	return w.Close()
}

func (s *smtpSender) Close() error {
	return s.c.Quit()
}
