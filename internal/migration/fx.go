package migration

import (
	"github.com/smallbiznis/invoicekit/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, holder *config.InvoiceConfigHolder, log *zap.Logger) error {
		tables := holder.Get().TableNames
		if err := RunMigrations(conn, tables); err != nil {
			return err
		}
		log.Info("schema migrated",
			zap.String("invoices_table", tables.Invoices),
			zap.String("lines_table", tables.InvoiceLines),
		)
		return nil
	}),
)
