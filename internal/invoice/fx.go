package invoice

import (
	"github.com/smallbiznis/invoicekit/internal/config"
	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/smallbiznis/invoicekit/internal/invoice/render"
	"github.com/smallbiznis/invoicekit/internal/invoice/repository"
	"github.com/smallbiznis/invoicekit/internal/invoice/service"
	"github.com/smallbiznis/invoicekit/internal/providers/pdf"
	"github.com/smallbiznis/invoicekit/internal/tax"
	"github.com/smallbiznis/invoicekit/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the invoice and bill services as named values:
//
//	Invoices domain.Service `name:"invoice"`
//	Bills    domain.Service `name:"bill"`
//
// and their rendering services under "invoice_rendering" and "bill_rendering".
var Module = fx.Module("invoice.service",
	tax.Module,
	repository.Module,
	fx.Provide(render.NewRenderer),
	fx.Provide(newDocumentServices),
	fx.Provide(newRenderingServices),
)

type documentServices struct {
	fx.Out

	Invoices domain.Service `name:"invoice"`
	Bills    domain.Service `name:"bill"`
}

func newDocumentServices(p service.ServiceParam) documentServices {
	return documentServices{
		Invoices: service.NewInvoiceService(p),
		Bills:    service.NewBillService(p),
	}
}

type renderingParams struct {
	fx.In

	Invoices domain.Service `name:"invoice"`
	Bills    domain.Service `name:"bill"`
	Renderer render.Renderer
	PDF      pdf.Provider
	Config   *config.InvoiceConfigHolder
	Metrics  *telemetry.Metrics `optional:"true"`
	Log      *zap.Logger
}

type renderingServices struct {
	fx.Out

	Invoices domain.RenderingService `name:"invoice_rendering"`
	Bills    domain.RenderingService `name:"bill_rendering"`
}

func newRenderingServices(p renderingParams) renderingServices {
	build := func(docs domain.Service) domain.RenderingService {
		return service.NewRendering(service.RenderingParam{
			Documents: docs,
			Renderer:  p.Renderer,
			PDF:       p.PDF,
			Config:    p.Config,
			Metrics:   p.Metrics,
			Log:       p.Log,
		})
	}
	return renderingServices{
		Invoices: build(p.Invoices),
		Bills:    build(p.Bills),
	}
}
