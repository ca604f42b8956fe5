package migration

import (
	"errors"
	"fmt"

	"github.com/smallbiznis/invoicekit/internal/config"
	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"gorm.io/gorm"
)

// RunMigrations creates or updates the document and line tables under the
// configured names so invoicekit is usable out of the box.
func RunMigrations(conn *gorm.DB, tables config.TableNames) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}

	if err := conn.Table(tables.Invoices).AutoMigrate(&domain.Document{}); err != nil {
		return fmt.Errorf("migrate %s: %w", tables.Invoices, err)
	}
	if err := conn.Table(tables.InvoiceLines).AutoMigrate(&domain.LineItem{}); err != nil {
		return fmt.Errorf("migrate %s: %w", tables.InvoiceLines, err)
	}
	return nil
}
