package mailer

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/souenergy/cotacao-backend/internal/config"
)

func listenerConfig(t *testing.T, ln net.Listener) config.SMTPConfig {
	t.Helper()
	addr := ln.Addr().(*net.TCPAddr)
	return config.SMTPConfig{
		Host:        "127.0.0.1",
		Port:        strconv.Itoa(addr.Port),
		NotifyEmail: "admin@example.com",
	}
}

// fakeSMTPServer speaks just enough of the protocol for an unauthenticated
// send and delivers the DATA section on the returned channel.
func fakeSMTPServer(t *testing.T, ln net.Listener) <-chan string {
	t.Helper()
	received := make(chan string, 1)

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()

		br := bufio.NewReader(conn)
		fmt.Fprintf(conn, "220 fake ESMTP ready\r\n")

		var data strings.Builder
		inData := false
		for {
			line, err := br.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\r\n")

			if inData {
				if line == "." {
					inData = false
					fmt.Fprintf(conn, "250 queued\r\n")
					received <- data.String()
					continue
				}
				data.WriteString(line)
				data.WriteString("\n")
				continue
			}

			switch {
			case strings.HasPrefix(line, "EHLO"), strings.HasPrefix(line, "HELO"):
				fmt.Fprintf(conn, "250 fake\r\n")
			case strings.HasPrefix(line, "DATA"):
				inData = true
				fmt.Fprintf(conn, "354 end with <CRLF>.<CRLF>\r\n")
			case strings.HasPrefix(line, "QUIT"):
				fmt.Fprintf(conn, "221 bye\r\n")
				return
			default:
				fmt.Fprintf(conn, "250 ok\r\n")
			}
		}
	}()

	return received
}

func TestSend_Delivers(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	received := fakeSMTPServer(t, ln)
	client := NewClient(listenerConfig(t, ln))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = client.Send(ctx, "Nova Cotação de Acme para X1", "<h1>Nova Cotação Recebida</h1>")
	require.NoError(t, err)

	select {
	case msg := <-received:
		assert.Contains(t, msg, "Subject: Nova Cotação de Acme para X1")
		assert.Contains(t, msg, "To: admin@example.com")
		assert.Contains(t, msg, "Content-Type: text/html")
		assert.Contains(t, msg, "<h1>Nova Cotação Recebida</h1>")
	case <-time.After(5 * time.Second):
		t.Fatal("message never delivered")
	}
}

func TestSend_HungServerFailsWithinBudget(t *testing.T) {
	// Accepts the connection but never sends the SMTP greeting.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		time.Sleep(30 * time.Second)
	}()

	client := NewClient(listenerConfig(t, ln))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = client.Send(ctx, "subject", "body")
	elapsed := time.Since(start)

	require.Error(t, err, "a silent server must not block the send forever")
	assert.Less(t, elapsed, 3*time.Second, "send must fail within the context budget")
}

func TestSend_UnreachableServer(t *testing.T) {
	client := NewClient(config.SMTPConfig{
		Host:        "127.0.0.1",
		Port:        "1", // nothing listens here
		NotifyEmail: "admin@example.com",
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := client.Send(ctx, "subject", "body")
	assert.Error(t, err)
}
