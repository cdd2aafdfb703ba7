package smtpingress

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
)

// extractPlainText pulls the readable text out of a message body so the
// pipeline classifies prose, not MIME framing. Multipart mail gets its
// text/plain parts concatenated; anything else comes back as is.
func extractPlainText(header mail.Header, body []byte) string {
	contentType := header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "multipart/") {
		return string(body)
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return string(body)
	}
	boundary, ok := params["boundary"]
	if !ok {
		return string(body)
	}

	mr := multipart.NewReader(bytes.NewReader(body), boundary)

	var textContent bytes.Buffer
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if textContent.Len() > 0 {
				return textContent.String()
			}
			return string(body)
		}

		partContentType := strings.ToLower(part.Header.Get("Content-Type"))
		if strings.Contains(partContentType, "text/plain") {
			partBytes, err := io.ReadAll(part)
			if err != nil {
				continue
			}
			textContent.Write(partBytes)
			textContent.WriteString("\n")
		}
		// Nested multipart and attachments are skipped
	}

	if textContent.Len() > 0 {
		return textContent.String()
	}
	return string(body)
}
