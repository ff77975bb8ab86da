package email

import (
	"bufio"
	"context"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medibook-api/pkg/circuitbreaker"
)

// smtpServer accepts one session and records the envelope and message.
type smtpServer struct {
	addr string
	done chan struct{}
	rcpt []string
	data string
}

func startSMTPServer(t *testing.T) *smtpServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	s := &smtpServer{addr: ln.Addr().String(), done: make(chan struct{})}
	go func() {
		defer close(s.done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tp := textproto.NewConn(conn)
		_ = tp.PrintfLine("220 localhost ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			cmd := strings.ToUpper(line)
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				_ = tp.PrintfLine("250 localhost")
			case strings.HasPrefix(cmd, "RCPT TO:"):
				s.rcpt = append(s.rcpt, strings.Trim(line[len("RCPT TO:"):], "<> "))
				_ = tp.PrintfLine("250 OK")
			case cmd == "DATA":
				_ = tp.PrintfLine("354 go ahead")
				body, err := tp.ReadDotBytes()
				if err != nil {
					return
				}
				s.data = string(body)
				_ = tp.PrintfLine("250 OK")
			case cmd == "QUIT":
				_ = tp.PrintfLine("221 bye")
				return
			default:
				_ = tp.PrintfLine("250 OK")
			}
		}
	}()
	return s
}

func configFor(t *testing.T, addr string) Config {
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return Config{Host: host, Port: p, From: "noreply@medibook.test"}
}

func TestConfigEnabled(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.False(t, Config{Host: "smtp.example.com"}.Enabled())
	assert.True(t, Config{Host: "smtp.example.com", From: "noreply@example.com"}.Enabled())
}

func TestSendDeliversMessage(t *testing.T) {
	srv := startSMTPServer(t)
	svc := NewSMTPService(configFor(t, srv.addr))

	require.NoError(t, svc.Send(context.Background(), "pat@example.com", "Appointment booked", "See you soon"))
	<-srv.done

	assert.Equal(t, []string{"pat@example.com"}, srv.rcpt)
	headers, err := textproto.NewReader(bufio.NewReader(strings.NewReader(srv.data))).ReadMIMEHeader()
	require.NoError(t, err)
	assert.Equal(t, "Appointment booked", headers.Get("Subject"))
	assert.Contains(t, headers.Get("From"), "noreply@medibook.test")
	assert.Contains(t, srv.data, "See you soon")
}

func TestSendOpensBreakerAfterFailures(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	svc := NewSMTPService(configFor(t, addr))
	ctx := context.Background()

	var last error
	for i := 0; i < 6; i++ {
		last = svc.Send(ctx, "pat@example.com", "s", "b")
		require.Error(t, last)
	}
	assert.True(t, circuitbreaker.IsOpen(last))
}

func TestSendHonoursCancelledContext(t *testing.T) {
	svc := NewSMTPService(Config{Host: "127.0.0.1", Port: 1, From: "noreply@medibook.test"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.Send(ctx, "pat@example.com", "s", "b")
	assert.ErrorIs(t, err, context.Canceled)
}
