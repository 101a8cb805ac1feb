package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/formbricks/gallery/internal/api/response"
)

// RequestBodyTooLargeRecorder counts requests rejected by MaxBody. Nil when metrics are disabled.
type RequestBodyTooLargeRecorder interface {
	RecordRequestBodyTooLarge(ctx context.Context)
}

// MaxBody caps request bodies at maxBytes (0 or negative disables the cap).
//
// Upload and search requests are answered from a buffer: when the handler hit the cap while
// reading, whatever it wrote is dropped and a 413 problem response is sent instead. Other
// methods stream straight through.
func MaxBody(maxBytes int64, recorder RequestBodyTooLargeRecorder) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body := &cappedBody{ReadCloser: http.MaxBytesReader(w, r.Body, maxBytes)}
			r.Body = body

			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)

				return
			}

			buffered := &bufferedResponse{ResponseWriter: w}
			next.ServeHTTP(buffered, r)

			if !body.exceeded {
				buffered.flush()

				return
			}

			if recorder != nil {
				recorder.RecordRequestBodyTooLarge(r.Context())
			}

			response.RespondRequestEntityTooLarge(w, "request body exceeds maximum allowed size")
		})
	}
}

// cappedBody remembers whether the underlying MaxBytesReader hit its limit. Read errors,
// io.EOF included, are returned unchanged.
type cappedBody struct {
	io.ReadCloser

	exceeded bool
}

func (b *cappedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		b.exceeded = true
	}

	return n, err //nolint:wrapcheck // io.Reader contract: callers compare against io.EOF
}

type bufferedResponse struct {
	http.ResponseWriter

	status int
	body   bytes.Buffer
}

func (b *bufferedResponse) WriteHeader(code int) {
	if b.status == 0 {
		b.status = code
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	return b.body.Write(p)
}

func (b *bufferedResponse) flush() {
	if b.status != 0 {
		b.ResponseWriter.WriteHeader(b.status)
	}

	_, _ = b.body.WriteTo(b.ResponseWriter)
}
