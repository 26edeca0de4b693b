package email

import (
	"bufio"
	"context"
	"mime"
	"net"
	"strings"
	"testing"
	"time"
)

func TestBuildMessageHeaders(t *testing.T) {
	raw := string(BuildMessage("Support <noreply@example.com>", Message{
		To:       "ops@example.com",
		Subject:  "Critical\r\nBcc: evil@example.com",
		Body:     "<pre>hi</pre>",
		ReplyTo:  "jane@example.com",
		Priority: 1,
	}))

	for _, want := range []string{
		"From: Support <noreply@example.com>\r\n",
		"To: ops@example.com\r\n",
		"Subject: CriticalBcc: evil@example.com\r\n",
		"Reply-To: jane@example.com\r\n",
		"X-Priority: 1\r\n",
		"Content-Type: text/html; charset=UTF-8\r\n",
		"\r\n\r\n<pre>hi</pre>",
	} {
		if !strings.Contains(raw, want) {
			t.Fatalf("expected %q in message:\n%s", want, raw)
		}
	}
}

func TestBuildMessageOmitsOptionalHeaders(t *testing.T) {
	raw := string(BuildMessage("a@example.com", Message{
		To:          "b@example.com",
		Subject:     "s",
		Body:        "plain",
		ContentType: ContentTypeText,
	}))
	if strings.Contains(raw, "Reply-To:") || strings.Contains(raw, "X-Priority:") {
		t.Fatalf("expected no optional headers:\n%s", raw)
	}
	if !strings.Contains(raw, "Content-Type: text/plain; charset=UTF-8") {
		t.Fatalf("expected text content type:\n%s", raw)
	}
}

func TestBuildMessageEncodesNonASCIIHeaders(t *testing.T) {
	from := NewSender(Config{From: "wp@example.com", FromName: "Café Blog"}).fromHeader()
	raw := string(BuildMessage(from, Message{
		To:      "ops@example.com",
		Subject: "High-Priority Support Request from José at Café!",
		Body:    "hi",
	}))

	headers, _, _ := strings.Cut(raw, "\r\n\r\n")
	for _, r := range headers {
		if r > 127 {
			t.Fatalf("expected ASCII-only headers:\n%s", headers)
		}
	}

	var dec mime.WordDecoder
	for prefix, want := range map[string]string{
		"Subject: ": "High-Priority Support Request from José at Café!",
		"From: ":    "Café Blog <wp@example.com>",
	} {
		var line string
		for _, l := range strings.Split(headers, "\r\n") {
			if strings.HasPrefix(l, prefix) {
				line = strings.TrimPrefix(l, prefix)
			}
		}
		got, err := dec.DecodeHeader(line)
		if err != nil {
			t.Fatalf("decode %s%q: %v", prefix, line, err)
		}
		if got != want {
			t.Fatalf("%sexpected %q, got %q", prefix, want, got)
		}
	}
}

func TestSendRequiresHost(t *testing.T) {
	if err := NewSender(Config{}).Send(context.Background(), Message{To: "x@example.com"}); err == nil {
		t.Fatal("expected error without smtp host")
	}
}

// fakeSMTP accepts one unauthenticated session and returns the DATA payload.
func fakeSMTP(t *testing.T) (string, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	data := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

		r := bufio.NewReader(conn)
		write := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }
		write("220 localhost ESMTP")

		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			cmd := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				write("250 localhost")
			case strings.HasPrefix(cmd, "MAIL FROM"), strings.HasPrefix(cmd, "RCPT TO"):
				write("250 OK")
			case cmd == "DATA":
				write("354 go ahead")
				var b strings.Builder
				for {
					l, err := r.ReadString('\n')
					if err != nil {
						return
					}
					if l == ".\r\n" {
						break
					}
					b.WriteString(l)
				}
				data <- b.String()
				write("250 queued")
			case cmd == "QUIT":
				write("221 bye")
				return
			default:
				write("250 OK")
			}
		}
	}()

	return ln.Addr().String(), data
}

func TestSendDeliversMessage(t *testing.T) {
	addr, data := fakeSMTP(t)
	host, port, _ := net.SplitHostPort(addr)

	sender := NewSender(Config{Host: host, Port: port, From: "noreply@example.com"})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := sender.Send(ctx, Message{
		To:       "ops@example.com",
		Subject:  "Hello",
		Body:     "<pre>Site down</pre>",
		ReplyTo:  "jane@example.com",
		Priority: 2,
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case got := <-data:
		if !strings.Contains(got, "X-Priority: 2") || !strings.Contains(got, "Site down") {
			t.Fatalf("unexpected payload:\n%s", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("smtp server never received DATA")
	}
}
