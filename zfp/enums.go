package zfp

import "fmt"

// Enumerated single-character protocol options. Only declared codes are
// valid; anything else is rejected before the command is issued.

// VATClass is the printer-side VAT group letter.
type VATClass byte

const (
	VATClassA VATClass = 'A'
	VATClassB VATClass = 'B'
	VATClassC VATClass = 'C'
	VATClassD VATClass = 'D'
	VATClassE VATClass = 'E'
	// VATClassF is "Alte taxe" (other charges).
	VATClassF VATClass = 'F'
)

func (c VATClass) valid() error {
	if c < 'A' || c > 'F' {
		return fmt.Errorf("invalid VAT class %q", string(c))
	}
	return nil
}

// ParseVATClass maps a letter to its VAT class.
func ParseVATClass(s string) (VATClass, error) {
	if len(s) != 1 {
		return 0, fmt.Errorf("invalid VAT class %q", s)
	}
	c := VATClass(s[0])
	if err := c.valid(); err != nil {
		return 0, err
	}
	return c, nil
}

// Zeroing selects a Z (zeroing) or X (read-only) report.
type Zeroing byte

const (
	Zero    Zeroing = 'Z'
	NotZero Zeroing = 'X'
)

func (z Zeroing) valid() error {
	if z != Zero && z != NotZero {
		return fmt.Errorf("invalid zeroing option %q", string(z))
	}
	return nil
}

// PaymentType is the device payment slot, '0' (cash) through '9'.
type PaymentType byte

const (
	PaymentCash PaymentType = '0'
	PaymentCard PaymentType = '1'
)

func (p PaymentType) valid() error {
	if p < '0' || p > '9' {
		return fmt.Errorf("invalid payment type %q", string(p))
	}
	return nil
}

// BarcodeType is the barcode symbology code.
type BarcodeType byte

const (
	BarcodeUPCA    BarcodeType = '0'
	BarcodeUPCE    BarcodeType = '1'
	BarcodeEAN13   BarcodeType = '2'
	BarcodeEAN8    BarcodeType = '3'
	BarcodeCode39  BarcodeType = '4'
	BarcodeITF     BarcodeType = '5'
	BarcodeCodabar BarcodeType = '6'
	BarcodeCode93  BarcodeType = 'H'
	BarcodeCode128 BarcodeType = 'I'
)

func (b BarcodeType) valid() error {
	switch b {
	case BarcodeUPCA, BarcodeUPCE, BarcodeEAN13, BarcodeEAN8, BarcodeCode39,
		BarcodeITF, BarcodeCodabar, BarcodeCode93, BarcodeCode128:
		return nil
	}
	return fmt.Errorf("invalid barcode type %q", string(b))
}

// FiscalPrintType controls how a fiscal receipt is spooled.
type FiscalPrintType byte

const (
	FiscalStepByStep FiscalPrintType = '0'
	FiscalPostponed  FiscalPrintType = '2'
	FiscalBuffered   FiscalPrintType = '4'
)

func (t FiscalPrintType) valid() error {
	if t != FiscalStepByStep && t != FiscalPostponed && t != FiscalBuffered {
		return fmt.Errorf("invalid fiscal receipt print type %q", string(t))
	}
	return nil
}

// NonFiscalPrintType controls how a non-fiscal receipt is spooled.
type NonFiscalPrintType byte

const (
	NonFiscalStepByStep NonFiscalPrintType = '0'
	NonFiscalPostponed  NonFiscalPrintType = '1'
)

func (t NonFiscalPrintType) valid() error {
	if t != NonFiscalStepByStep && t != NonFiscalPostponed {
		return fmt.Errorf("invalid non-fiscal receipt print type %q", string(t))
	}
	return nil
}

// yesNo renders a boolean flag as the protocol's '1'/'0'.
func yesNo(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
