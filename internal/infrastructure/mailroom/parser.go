package mailroom

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"
)

// Message is one decoded inbound email before routing.
type Message struct {
	Subject    string
	Sender     string
	ReceivedAt time.Time
	Text       string
	HTML       string
}

// ParseMessage decodes a raw RFC 5322 message into subject, sender address
// and the text/plain and text/html bodies.
func ParseMessage(r io.Reader) (Message, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return Message{}, fmt.Errorf("read message: %w", err)
	}

	var out Message

	dec := new(mime.WordDecoder)
	if subject, err := dec.DecodeHeader(msg.Header.Get("Subject")); err == nil {
		out.Subject = subject
	} else {
		out.Subject = msg.Header.Get("Subject")
	}

	if addr, err := mail.ParseAddress(msg.Header.Get("From")); err == nil {
		out.Sender = addr.Address
	} else {
		out.Sender = strings.TrimSpace(msg.Header.Get("From"))
	}

	if t, err := msg.Header.Date(); err == nil {
		out.ReceivedAt = t.UTC()
	} else {
		out.ReceivedAt = time.Now().UTC()
	}

	if err := walkBody(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body, &out); err != nil {
		return Message{}, err
	}

	return out, nil
}

// walkBody descends multipart trees collecting the first text/plain and
// text/html leaf bodies.
func walkBody(contentType, encoding string, body io.Reader, out *Message) error {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Header missing or malformed; treat the body as plain text.
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return fmt.Errorf("multipart message without boundary")
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("next part: %w", err)
			}
			err = walkBody(part.Header.Get("Content-Type"), part.Header.Get("Content-Transfer-Encoding"), part, out)
			part.Close()
			if err != nil {
				return err
			}
		}
	}

	payload, err := decodeTransfer(body, encoding)
	if err != nil {
		return err
	}

	switch mediaType {
	case "text/plain":
		if out.Text == "" {
			out.Text = payload
		}
	case "text/html":
		if out.HTML == "" {
			out.HTML = payload
		}
	}
	return nil
}

func decodeTransfer(body io.Reader, encoding string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		body = quotedprintable.NewReader(body)
	case "base64":
		body = base64.NewDecoder(base64.StdEncoding, body)
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(raw), nil
}
