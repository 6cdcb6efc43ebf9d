package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kambejat/undiziwa/pkg/logger"
)

const traceHeader = "X-Trace-ID"

// RequestID accepts a caller-supplied trace id or mints one, binds it to the
// request-scoped logger, and echoes it on the response so clients can quote
// it in support requests.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		w.Header().Set(traceHeader, traceID)

		ctx := logger.With(r.Context(), "trace_id", traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
