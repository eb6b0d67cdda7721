package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/storemigrate/internal/core"
	mw "github.com/JonMunkholm/storemigrate/internal/web/middleware"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx. Jobs
// created under it record who started them.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, mw.ClientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.Header.Get("User-Agent"))
	return ctx
}
