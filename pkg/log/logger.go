package log

import (
	"context"

	"github.com/smallbiznis/invoicekit/pkg/log/ctxlogger"
	"go.uber.org/zap"
)

// L returns a context-aware logger with correlation and tracing metadata.
func L(ctx context.Context) *zap.Logger {
	return ctxlogger.FromContext(ctx)
}
