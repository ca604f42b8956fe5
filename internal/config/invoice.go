package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// InvoiceConfig carries the document defaults read from invoice.yml.
type InvoiceConfig struct {
	DefaultCurrency string          `mapstructure:"default_currency"`
	DefaultStatus   string          `mapstructure:"default_status"`
	Locale          string          `mapstructure:"locale"`
	TableNames      TableNames      `mapstructure:"table_names"`
	Reference       ReferenceConfig `mapstructure:"reference"`

	// Relations are listed rather than keyed so type tags keep their case and dots.
	Relations []RelationConfig `mapstructure:"relations"`
}

// RelationConfig binds a related type tag to the table its rows are read from.
type RelationConfig struct {
	Type  string `mapstructure:"type"`
	Table string `mapstructure:"table"`
}

type TableNames struct {
	Invoices     string `mapstructure:"invoices"`
	InvoiceLines string `mapstructure:"invoice_lines"`
}

type ReferenceConfig struct {
	Template    string `mapstructure:"template"`
	Sequence    string `mapstructure:"sequence"`
	SequenceKey string `mapstructure:"sequence_key"`
}

const (
	SequenceNone  = ""
	SequenceRedis = "redis"
)

func DefaultInvoiceConfig() InvoiceConfig {
	return InvoiceConfig{
		DefaultCurrency: "TRY",
		DefaultStatus:   "concept",
		Locale:          "en",
		TableNames: TableNames{
			Invoices:     "invoices",
			InvoiceLines: "invoice_lines",
		},
		Reference: ReferenceConfig{
			Template:    "{YYYY}-{MM}-{DD}-{RAND6}",
			Sequence:    SequenceNone,
			SequenceKey: "invoicekit:reference:seq",
		},
	}
}

type InvoiceConfigHolder struct {
	current atomic.Value // holds InvoiceConfig
}

// NewStaticInvoiceConfigHolder returns a holder that never reloads.
func NewStaticInvoiceConfigHolder(cfg InvoiceConfig) *InvoiceConfigHolder {
	holder := &InvoiceConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

// NewInvoiceConfigHolder reads invoice.yml (optional) with INVOICE_* env overrides.
// Table names are read once by the repository; reloads only affect defaults
// applied to documents created afterwards.
func NewInvoiceConfigHolder(appCfg Config, log *zap.Logger) (*InvoiceConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	v := viper.New()

	v.SetConfigName("invoice")
	v.SetConfigType("yml")
	if appCfg.InvoiceConfigDir != "" {
		v.AddConfigPath(appCfg.InvoiceConfigDir)
	} else {
		v.AddConfigPath("/etc/invoicekit")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("INVOICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultInvoiceConfig()
	v.SetDefault("default_currency", defaults.DefaultCurrency)
	v.SetDefault("default_status", defaults.DefaultStatus)
	v.SetDefault("locale", defaults.Locale)
	v.SetDefault("table_names.invoices", defaults.TableNames.Invoices)
	v.SetDefault("table_names.invoice_lines", defaults.TableNames.InvoiceLines)
	v.SetDefault("reference.template", defaults.Reference.Template)
	v.SetDefault("reference.sequence", defaults.Reference.Sequence)
	v.SetDefault("reference.sequence_key", defaults.Reference.SequenceKey)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileFound = false
	}

	cfg, err := decodeInvoiceConfig(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticInvoiceConfigHolder(cfg)
	if !fileFound {
		return holder, nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeInvoiceConfig(v)
		if err != nil {
			log.Warn("invoice config reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("invoice config reloaded", zap.String("file", e.Name))
	})
	v.WatchConfig()

	return holder, nil
}

func (h *InvoiceConfigHolder) Get() InvoiceConfig {
	return h.current.Load().(InvoiceConfig)
}

func decodeInvoiceConfig(v *viper.Viper) (InvoiceConfig, error) {
	var cfg InvoiceConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return InvoiceConfig{}, err
	}
	cfg.DefaultCurrency = strings.ToUpper(strings.TrimSpace(cfg.DefaultCurrency))
	cfg.Reference.Sequence = strings.ToLower(strings.TrimSpace(cfg.Reference.Sequence))
	if err := validateInvoiceConfig(cfg); err != nil {
		return InvoiceConfig{}, err
	}
	return cfg, nil
}

func validateInvoiceConfig(cfg InvoiceConfig) error {
	if len(cfg.DefaultCurrency) != 3 {
		return fmt.Errorf("default_currency must be an ISO 4217 code, got %q", cfg.DefaultCurrency)
	}
	if strings.TrimSpace(cfg.DefaultStatus) == "" {
		return errors.New("default_status cannot be empty")
	}
	if cfg.TableNames.Invoices == "" || cfg.TableNames.InvoiceLines == "" {
		return errors.New("table_names cannot be empty")
	}
	for i, rel := range cfg.Relations {
		if strings.TrimSpace(rel.Type) == "" || strings.TrimSpace(rel.Table) == "" {
			return fmt.Errorf("relations[%d] needs both type and table", i)
		}
	}
	if strings.TrimSpace(cfg.Reference.Template) == "" {
		return errors.New("reference.template cannot be empty")
	}
	switch cfg.Reference.Sequence {
	case SequenceNone, SequenceRedis:
	default:
		return fmt.Errorf("unsupported reference.sequence %q", cfg.Reference.Sequence)
	}
	return nil
}
