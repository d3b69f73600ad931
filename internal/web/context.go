package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/dataprep/internal/core"
)

// WithRequestMetadata adds IP and User-Agent to context for load logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithRequestMeta(ctx, core.RequestMeta{
		IP:        r.RemoteAddr, // Already processed by TrustedRealIP
		UserAgent: r.Header.Get("User-Agent"),
	})
}
