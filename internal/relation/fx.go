package relation

import (
	"github.com/smallbiznis/invoicekit/internal/config"
	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("relation",
	fx.Provide(NewRegistry),
	fx.Provide(func(r *Registry) domain.RelatedResolver { return r }),
	fx.Invoke(registerTables),
)

// registerTables adds a table-backed resolver for every entry under
// relations in invoice.yml.
func registerTables(r *Registry, conn *gorm.DB, holder *config.InvoiceConfigHolder, log *zap.Logger) {
	for _, rel := range holder.Get().Relations {
		r.Register(rel.Type, TableResolver(conn, rel.Table))
		log.Debug("related type registered", zap.String("type", rel.Type), zap.String("table", rel.Table))
	}
}
