package main

import (
	"github.com/smallbiznis/invoicekit/internal/clock"
	"github.com/smallbiznis/invoicekit/internal/config"
	"github.com/smallbiznis/invoicekit/internal/invoice"
	"github.com/smallbiznis/invoicekit/internal/logger"
	"github.com/smallbiznis/invoicekit/internal/migration"
	"github.com/smallbiznis/invoicekit/internal/providers/pdf"
	"github.com/smallbiznis/invoicekit/internal/reference"
	"github.com/smallbiznis/invoicekit/internal/relation"
	"github.com/smallbiznis/invoicekit/internal/server"
	"github.com/smallbiznis/invoicekit/pkg/db"
	"github.com/smallbiznis/invoicekit/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	fx.New(
		appOptions(),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	).Run()
}

func appOptions() fx.Option {
	return fx.Options(
		// Core Infrastructure
		config.Module,
		logger.Module,
		telemetry.Module,
		db.Module,
		clock.Module,
		migration.Module,

		// Documents
		reference.Module,
		relation.Module,
		pdf.Module,
		invoice.Module,

		server.Module,
	)
}
