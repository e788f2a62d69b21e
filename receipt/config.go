package receipt

import (
	"time"

	"cbssolutions.ro/zfp-connector/zfp"
)

const (
	// minLineWidth is the narrowest supported printer line; configured
	// widths below it are raised to it.
	minLineWidth = 30
	// defaultOperNum: receipts are always issued as operator 1.
	defaultOperNum = 1
)

// Config carries everything one print attempt needs, read once from the
// external configuration source. There is no process-wide state; a
// workflow owns its Config for the duration of the attempt.
type Config struct {
	// ServerAddress is the driver server as host[:port]; port defaults
	// to 4444.
	ServerAddress string `json:"server_address" mapstructure:"server_address"`

	Device zfp.DeviceSettings `json:"device" mapstructure:"device"`

	// OperatorPassword is '0' on fiscal cash registers and '0000' on
	// fiscal printers, for operator 1.
	OperatorPassword string `json:"operator_password" mapstructure:"operator_password"`

	ForceNonFiscal bool `json:"force_non_fiscal" mapstructure:"force_non_fiscal"`
	CutAfterPrint  bool `json:"cut_after_print" mapstructure:"cut_after_print"`
	OpenCashDrawer bool `json:"open_cash_drawer" mapstructure:"open_cash_drawer"`
	PrintBarcode   bool `json:"print_barcode" mapstructure:"print_barcode"`
	PrintLogo      bool `json:"print_logo" mapstructure:"print_logo"`

	// LineWidth is the number of printable symbols per line; floor 30.
	LineWidth int `json:"line_width" mapstructure:"line_width"`
	// NameMaxLines caps how many lines a long product name may take;
	// floor 1.
	NameMaxLines int `json:"name_max_lines" mapstructure:"name_max_lines"`

	FooterText string `json:"footer_text" mapstructure:"footer_text"`

	// VATClasses maps the order's tax identifiers to printer VAT class
	// letters. Untagged or unmapped taxes fall back to DefaultVATClass.
	VATClasses      map[string]string `json:"vat_classes" mapstructure:"vat_classes"`
	DefaultVATClass string            `json:"default_vat_class" mapstructure:"default_vat_class"`

	Encoding string `json:"encoding" mapstructure:"encoding"`

	// CallTimeout bounds each protocol call; zero means the client
	// default.
	CallTimeout time.Duration `json:"call_timeout" mapstructure:"call_timeout"`
}

// Validate checks the configuration before any socket is touched.
func (c *Config) Validate() error {
	if c.ServerAddress == "" {
		return &ConfigError{Reason: "the fiscal printer driver server address is not configured"}
	}
	if err := c.Device.Validate(); err != nil {
		return &ConfigError{Reason: err.Error()}
	}
	if _, err := zfp.ParseEncoding(c.Encoding); err != nil {
		return &ConfigError{Reason: err.Error()}
	}
	if c.DefaultVATClass != "" {
		if _, err := zfp.ParseVATClass(c.DefaultVATClass); err != nil {
			return &ConfigError{Reason: err.Error()}
		}
	}
	for tax, class := range c.VATClasses {
		if _, err := zfp.ParseVATClass(class); err != nil {
			return &ConfigError{Reason: "tax " + tax + ": " + err.Error()}
		}
	}
	return nil
}

func (c *Config) lineWidth() int {
	if c.LineWidth > minLineWidth {
		return c.LineWidth
	}
	return minLineWidth
}

func (c *Config) nameMaxLines() int {
	if c.NameMaxLines > 1 {
		return c.NameMaxLines
	}
	return 1
}

func (c *Config) operatorPassword() string {
	if c.OperatorPassword == "" {
		return "0"
	}
	return c.OperatorPassword
}

// vatClassFor maps an order tax identifier to its printer VAT class.
func (c *Config) vatClassFor(taxID string) zfp.VATClass {
	if taxID != "" {
		if class, ok := c.VATClasses[taxID]; ok {
			if v, err := zfp.ParseVATClass(class); err == nil {
				return v
			}
		}
	}
	if c.DefaultVATClass != "" {
		if v, err := zfp.ParseVATClass(c.DefaultVATClass); err == nil {
			return v
		}
	}
	return zfp.VATClassA
}

func (c *Config) encoding() zfp.Encoding {
	enc, err := zfp.ParseEncoding(c.Encoding)
	if err != nil {
		return zfp.EncCP1250
	}
	return enc
}
