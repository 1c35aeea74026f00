package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Transcribe relays an audio recording to the transcription service and
// returns its JSON response verbatim. The service's output schema is
// not interpreted here.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename, contentType string) (json.RawMessage, error) {
	if filename == "" {
		filename = "audio"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, escapeQuotes(filename)))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("%w: building multipart body: %w", ErrUpstream, err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, fmt.Errorf("%w: reading audio: %w", ErrUpstream, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: building multipart body: %w", ErrUpstream, err)
	}

	raw, err := c.post(ctx, c.cfg.TranscriptionURL, w.FormDataContentType(), buf.Bytes())
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: transcription response is not JSON", ErrUpstream)
	}
	return json.RawMessage(raw), nil
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
