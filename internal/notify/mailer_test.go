package notify

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/approval-service/internal/config"
	"github.com/spec-kit/approval-service/internal/domain"
)

func testClaim() *domain.Claim {
	return &domain.Claim{
		ID:          "CLM-001",
		Status:      "approved",
		ClaimType:   "auto_accident",
		ClaimAmount: 5000.00,
		FiledDate:   "2025-10-15",
	}
}

func TestBuildApprovalEmail(t *testing.T) {
	ticket := &domain.Ticket{
		ID:        "t1",
		SubjectID: "CLM-001",
		Recipient: "a@b.com",
	}

	msg, err := BuildApprovalEmail(ticket, testClaim(),
		"http://localhost:8085/api/approve/t1",
		"http://localhost:8085/api/reject/t1")
	require.NoError(t, err)

	assert.Equal(t, "a@b.com", msg.To)
	assert.True(t, msg.HTML)
	assert.Contains(t, msg.Subject, "CLM-001")
	assert.Contains(t, msg.Body, "http://localhost:8085/api/approve/t1")
	assert.Contains(t, msg.Body, "http://localhost:8085/api/reject/t1")
	assert.Contains(t, msg.Body, "Auto Accident")
	assert.Contains(t, msg.Body, "$5000.00")
	assert.Contains(t, msg.Body, "t1")
}

func TestNewMailerSelectsDemoMode(t *testing.T) {
	mailer := NewMailer(config.SMTPConfig{Password: ""}, zap.NewNop())
	_, demo := mailer.(*logMailer)
	assert.True(t, demo)

	mailer = NewMailer(config.SMTPConfig{Password: "secret"}, zap.NewNop())
	_, smtp := mailer.(*smtpMailer)
	assert.True(t, smtp)
}

func TestLogMailerNeverFails(t *testing.T) {
	mailer := &logMailer{logger: zap.NewNop()}
	err := mailer.Send(context.Background(), Message{To: "a@b.com", Subject: "s", Body: "b"})
	assert.NoError(t, err)
}

// fakeSMTPServer speaks just enough SMTP to accept one message.
type fakeSMTPServer struct {
	mu   sync.Mutex
	data []string
}

func (s *fakeSMTPServer) start(t *testing.T) (string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go s.handle(conn)
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func (s *fakeSMTPServer) handle(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)
	write := func(msg string) {
		_, _ = writer.WriteString(msg)
		_ = writer.Flush()
	}

	write("220 localhost ESMTP\r\n")
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			write("250-localhost\r\n250 OK\r\n")
		case strings.HasPrefix(cmd, "MAIL FROM"):
			write("250 OK\r\n")
		case strings.HasPrefix(cmd, "RCPT TO"):
			write("250 OK\r\n")
		case strings.HasPrefix(cmd, "DATA"):
			write("354 End data with <CR><LF>.<CR><LF>\r\n")
			for {
				dataLine, err := reader.ReadString('\n')
				if err != nil {
					return
				}
				if strings.TrimRight(dataLine, "\r\n") == "." {
					break
				}
				s.mu.Lock()
				s.data = append(s.data, dataLine)
				s.mu.Unlock()
			}
			write("250 OK\r\n")
		case strings.HasPrefix(cmd, "QUIT"):
			write("221 Bye\r\n")
			return
		default:
			write("250 OK\r\n")
		}
	}
}

func (s *fakeSMTPServer) received() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.data, "")
}

func TestSMTPMailerSend(t *testing.T) {
	server := &fakeSMTPServer{}
	host, port := server.start(t)

	mailer := &smtpMailer{cfg: config.SMTPConfig{
		Host:     host,
		Port:     port,
		From:     "noreply@insurance.example.com",
		TimeoutS: 5,
	}}

	err := mailer.Send(context.Background(), Message{
		To:      "a@b.com",
		Subject: "Action Required",
		Body:    "<p>hello</p>",
		HTML:    true,
	})
	require.NoError(t, err)

	received := server.received()
	assert.Contains(t, received, "To: a@b.com")
	assert.Contains(t, received, "Subject: Action Required")
	assert.Contains(t, received, "Content-Type: text/html")
	assert.Contains(t, received, "<p>hello</p>")
}

func TestSMTPMailerRequiresRecipient(t *testing.T) {
	mailer := &smtpMailer{cfg: config.SMTPConfig{Host: "127.0.0.1", Port: 25}}
	assert.Error(t, mailer.Send(context.Background(), Message{Subject: "s"}))
}
