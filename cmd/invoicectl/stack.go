package main

import (
	"context"

	"github.com/smallbiznis/invoicekit/internal/clock"
	"github.com/smallbiznis/invoicekit/internal/config"
	"github.com/smallbiznis/invoicekit/internal/invoice"
	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/smallbiznis/invoicekit/internal/logger"
	"github.com/smallbiznis/invoicekit/internal/migration"
	"github.com/smallbiznis/invoicekit/internal/providers/pdf"
	"github.com/smallbiznis/invoicekit/internal/reference"
	"github.com/smallbiznis/invoicekit/internal/relation"
	"github.com/smallbiznis/invoicekit/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// stack is the subset of the daemon's object graph the CLI drives.
type stack struct {
	fx.In

	Invoices         domain.Service          `name:"invoice"`
	Bills            domain.Service          `name:"bill"`
	InvoiceRendering domain.RenderingService `name:"invoice_rendering"`
	BillRendering    domain.RenderingService `name:"bill_rendering"`
}

func (s stack) documents(bill bool) (domain.Service, domain.RenderingService) {
	if bill {
		return s.Bills, s.BillRendering
	}
	return s.Invoices, s.InvoiceRendering
}

type opener func(ctx context.Context) (stack, func(), error)

// openStack starts the same modules as invoiced minus the HTTP server.
func openStack(ctx context.Context) (stack, func(), error) {
	var s stack
	app := fx.New(
		config.Module,
		logger.Module,
		db.Module,
		clock.Module,
		migration.Module,
		reference.Module,
		relation.Module,
		pdf.Module,
		invoice.Module,
		fx.NopLogger,
		fx.Decorate(func(cfg config.Config) (*zap.Logger, error) {
			return logger.NewWithOutput(cfg.LogLevel, "stderr")
		}),
		fx.Invoke(func(deps stack) { s = deps }),
	)
	if err := app.Start(ctx); err != nil {
		return stack{}, nil, err
	}

	stop := func() {
		_ = app.Stop(context.Background())
	}
	return s, stop, nil
}
