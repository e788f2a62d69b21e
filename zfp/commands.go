package zfp

import (
	"time"
)

// The command catalog. Each method issues exactly one protocol command;
// parameter names, order, formats and optionality follow the fixed
// definition table for this protocol version.

// OpenReceipt opens a fiscal receipt assigned to the given operator.
func (c *Client) OpenReceipt(operNum int, operPass string, printType FiscalPrintType) error {
	r := newRequest("OpenReceipt").
		num("OperNum", float64(operNum), "##").
		str("OperPass", operPass, 4).
		enum("OptionFiscalReceiptPrintType", byte(printType), printType.valid)
	_, err := c.exec(r)
	return err
}

// OpenNonFiscalReceipt opens an informational receipt with no fiscal
// memory accumulation.
func (c *Client) OpenNonFiscalReceipt(operNum int, operPass string, printType NonFiscalPrintType) error {
	r := newRequest("OpenNonFiscalReceipt").
		num("OperNum", float64(operNum), "##").
		str("OperPass", operPass, 4).
		enum("OptionNonFiscalPrintType", byte(printType), printType.valid)
	_, err := c.exec(r)
	return err
}

// CloseReceipt closes the opened fiscal receipt.
func (c *Client) CloseReceipt() error {
	_, err := c.exec(newRequest("CloseReceipt"))
	return err
}

// CloseNonFiscalReceipt closes the opened non-fiscal receipt.
func (c *Client) CloseNonFiscalReceipt() error {
	_, err := c.exec(newRequest("CloseNonFiscalReceipt"))
	return err
}

// CancelReceipt voids the opened fiscal receipt. Not possible once a
// payment has been initiated; use CashPayCloseReceipt then.
func (c *Client) CancelReceipt() error {
	_, err := c.exec(newRequest("CancelReceipt"))
	return err
}

// CashPayCloseReceipt pays the exact remaining amount in cash and closes
// the fiscal receipt.
func (c *Client) CashPayCloseReceipt() error {
	_, err := c.exec(newRequest("CashPayCloseReceipt"))
	return err
}

// SellPLU carries the parameters shared by the sale and storno line
// commands. Price and Quantity are negated by the caller for storno.
// Nil optionals are absent from the wire.
type SellPLU struct {
	Name     string
	VATClass VATClass
	Price    float64
	Quantity *float64

	DiscAddP  *float64
	DiscAddV  *float64
	DiscNamed *float64
}

func (c *Client) sellOrStorno(cmd string, p SellPLU) error {
	r := newRequest(cmd).
		str("NamePLU", p.Name, 36).
		enum("OptionVATClass", byte(p.VATClass), p.VATClass.valid)
	if r.err == nil {
		r.dec("Price", p.Price, 10)
		if p.Quantity != nil {
			r.qty("Quantity", *p.Quantity, 10)
		}
		r.optDec("DiscAddP", p.DiscAddP, 7).
			optDec("DiscAddV", p.DiscAddV, 8).
			optDec("DiscNamed", p.DiscNamed, 8)
	}
	_, err := c.exec(r)
	return err
}

// SellPLUwithSpecifiedVAT registers the sale of an article with name,
// unit price, quantity and VAT class.
func (c *Client) SellPLUwithSpecifiedVAT(p SellPLU) error {
	return c.sellOrStorno("SellPLUwithSpecifiedVAT", p)
}

// StornoPLU registers a correction line. Price carries a minus sign for
// the storno operation.
func (c *Client) StornoPLU(p SellPLU) error {
	return c.sellOrStorno("StornoPLU", p)
}

// Subtotal calculates the running receipt total, optionally printing and
// displaying it, and returns the calculated amount.
func (c *Client) Subtotal(print, display bool, discAddV, discAddP *float64) (float64, error) {
	r := newRequest("Subtotal")
	r.toks = append(r.toks,
		token{name: "OptionPrinting", value: yesNo(print)},
		token{name: "OptionDisplay", value: yesNo(display)})
	r.optDec("DiscAddV", discAddV, 10).
		optDec("DiscAddP", discAddP, 7)
	fields, err := c.exec(r)
	if err != nil {
		return 0, err
	}
	sc := newScanner(fields)
	sum := sc.float("SubtotalValue")
	return sum, sc.finish()
}

// Payment registers a payment of the given type and received amount. The
// device accumulates one amount per payment type.
func (c *Client) Payment(t PaymentType, amount float64) error {
	r := newRequest("Payment").
		enum("OptionPaymentType", byte(t), t.valid).
		dec("Amount", amount, 10)
	_, err := c.exec(r)
	return err
}

// PayExactSum registers a payment of the exact remaining amount.
func (c *Client) PayExactSum(t PaymentType) error {
	r := newRequest("PayExactSum").
		enum("OptionPaymentType", byte(t), t.valid)
	_, err := c.exec(r)
	return err
}

// PrintText prints one line of free text.
func (c *Client) PrintText(text string) error {
	r := newRequest("PrintText").str("Text", text, 64)
	_, err := c.exec(r)
	return err
}

// PrintBarcode prints a barcode of the stated symbology and length.
func (c *Client) PrintBarcode(t BarcodeType, length int, data string) error {
	r := newRequest("PrintBarcode").
		enum("OptionCodeType", byte(t), t.valid).
		num("CodeLen", float64(length), "###").
		str("CodeData", data, 255)
	_, err := c.exec(r)
	return err
}

// PaperFeed feeds one line of paper.
func (c *Client) PaperFeed() error {
	_, err := c.exec(newRequest("PaperFeed"))
	return err
}

// CutPaper activates the cutter.
func (c *Client) CutPaper() error {
	_, err := c.exec(newRequest("CutPaper"))
	return err
}

// CashDrawerOpen opens the cash drawer.
func (c *Client) CashDrawerOpen() error {
	_, err := c.exec(newRequest("CashDrawerOpen"))
	return err
}

// DisplayTextLines1and2 shows a 40-symbol text on both display lines.
func (c *Client) DisplayTextLines1and2(text string) error {
	r := newRequest("DisplayTextLines1and2").str("Text", text, 40)
	_, err := c.exec(r)
	return err
}

// PrintDailyReport prints the daily fiscal report, with fiscal memory
// record and zeroing for 'Z', read-only for 'X'.
func (c *Client) PrintDailyReport(z Zeroing) error {
	r := newRequest("PrintDailyReport").enum("OptionZeroing", byte(z), z.valid)
	_, err := c.exec(r)
	return err
}

// PrintArticleReport prints an article report with or without zeroing.
func (c *Client) PrintArticleReport(z Zeroing) error {
	r := newRequest("PrintArticleReport").enum("OptionZeroing", byte(z), z.valid)
	_, err := c.exec(r)
	return err
}

// PrintOperatorReport prints a report for one operator, 0 for all.
func (c *Client) PrintOperatorReport(z Zeroing, operNum int) error {
	r := newRequest("PrintOperatorReport").
		enum("OptionZeroing", byte(z), z.valid).
		num("Number", float64(operNum), "##")
	_, err := c.exec(r)
	return err
}

// PrintDepartmentReport prints the departments report.
func (c *Client) PrintDepartmentReport(z Zeroing) error {
	r := newRequest("PrintDepartmentReport").enum("OptionZeroing", byte(z), z.valid)
	_, err := c.exec(r)
	return err
}

// SetDateTime sets the device clock.
func (c *Client) SetDateTime(t time.Time) error {
	r := newRequest("SetDateTime").date("DateTime", t, "02-01-06 15:04:05")
	_, err := c.exec(r)
	return err
}

// ProgParameters programs the POS number and peripheral behaviour flags.
func (c *Client) ProgParameters(p Parameters) error {
	r := newRequest("ProgParameters").
		num("POSNum", float64(p.POSNum), "####")
	r.toks = append(r.toks,
		token{name: "OptionPrintLogo", value: yesNo(p.PrintLogo)},
		token{name: "OptionAutoOpenDrawer", value: yesNo(p.AutoOpenDrawer)},
		token{name: "OptionAutoCut", value: yesNo(p.AutoCut)},
		token{name: "OptionExternalDispManagement", value: yesNo(p.ExternalDispManual)},
		token{name: "OptionEnableCurrency", value: yesNo(p.EnableCurrency)},
		token{name: "OptionUSBHost", value: yesNo(p.USBHost)})
	_, err := c.exec(r)
	return err
}

// ReadStatus reads the detailed device status bits.
func (c *Client) ReadStatus() (*Status, error) {
	fields, err := c.exec(newRequest("ReadStatus"))
	if err != nil {
		return nil, err
	}
	return decodeStatus(fields)
}

// ReadDateTime reads the device clock.
func (c *Client) ReadDateTime() (time.Time, error) {
	fields, err := c.exec(newRequest("ReadDateTime"))
	if err != nil {
		return time.Time{}, err
	}
	sc := newScanner(fields)
	t := sc.date("DateTime", "02-01-06 15:04:05")
	return t, sc.finish()
}

// ReadVersion reads the device model and firmware version.
func (c *Client) ReadVersion() (string, error) {
	fields, err := c.exec(newRequest("ReadVersion"))
	if err != nil {
		return "", err
	}
	sc := newScanner(fields)
	v := sc.str("Version")
	return v, sc.finish()
}

// ReadVATrates reads the current VAT rates.
func (c *Client) ReadVATrates() (*VATRates, error) {
	fields, err := c.exec(newRequest("ReadVATrates"))
	if err != nil {
		return nil, err
	}
	sc := newScanner(fields)
	v := &VATRates{
		RateA:     sc.float("VATrateA"),
		RateB:     sc.float("VATrateB"),
		RateC:     sc.float("VATrateC"),
		RateD:     sc.float("VATrateD"),
		RateE:     sc.float("VATrateE"),
		AlteTaxeF: sc.float("AlteTaxeF"),
	}
	if err := sc.finish(); err != nil {
		return nil, err
	}
	return v, nil
}

// ReadLastAndTotalReceiptNum reads the number of the last issued receipt
// and the total receipt counter.
func (c *Client) ReadLastAndTotalReceiptNum() (*ReceiptCounters, error) {
	fields, err := c.exec(newRequest("ReadLastAndTotalReceiptNum"))
	if err != nil {
		return nil, err
	}
	sc := newScanner(fields)
	rc := &ReceiptCounters{
		LastReceiptNum:      sc.int("LastReceiptNum"),
		TotalReceiptCounter: sc.int("TotalReceiptCounter"),
	}
	if err := sc.finish(); err != nil {
		return nil, err
	}
	return rc, nil
}

// ReadCurrentReceiptInfo reads the state of the receipt in progress.
func (c *Client) ReadCurrentReceiptInfo() (*CurrentReceiptInfo, error) {
	fields, err := c.exec(newRequest("ReadCurrentReceiptInfo"))
	if err != nil {
		return nil, err
	}
	sc := newScanner(fields)
	info := &CurrentReceiptInfo{
		IsOpened:           sc.bool("OptionIsReceiptOpened"),
		SalesNumber:        sc.int("SalesNumber"),
		SubtotalVATA:       sc.float("SubtotalAmountVATGA"),
		SubtotalVATB:       sc.float("SubtotalAmountVATGB"),
		SubtotalVATC:       sc.float("SubtotalAmountVATGC"),
		SubtotalVATD:       sc.float("SubtotalAmountVATGD"),
		SubtotalVATE:       sc.float("SubtotalAmountVATGE"),
		ForbiddenVoid:      sc.bool("OptionForbiddenVoid"),
		VATWithoutPrinting: sc.bool("OptionVATinReceipt"),
		DetailedFormat:     sc.bool("OptionReceiptFormat"),
		PaymentInitiated:   !sc.bool("OptionInitiatedPayment"),
		PaymentFinalized:   !sc.bool("OptionFinalizedPayment"),
		PowerDownInReceipt: sc.bool("OptionPowerDownInReceipt"),
		ClientReceipt:      sc.bool("OptionClientReceipt"),
		ChangeAmount:       sc.float("ChangeAmount"),
	}
	ct := sc.str("OptionChangeType")
	info.AlteTaxeValue = sc.float("AlteTaxeValue")
	if err := sc.finish(); err != nil {
		return nil, err
	}
	if len(ct) == 1 {
		info.ChangeType = ct[0]
	}
	return info, nil
}

// ReadDailyAvailableAmounts reads the amount on hand per payment type.
func (c *Client) ReadDailyAvailableAmounts() (*DailyAmounts, error) {
	fields, err := c.exec(newRequest("ReadDailyAvailableAmounts"))
	if err != nil {
		return nil, err
	}
	sc := newScanner(fields)
	var da DailyAmounts
	names := [...]string{
		"AmountPayment0", "AmountPayment1", "AmountPayment2", "AmountPayment3",
		"AmountPayment4", "AmountPayment5", "AmountPayment6", "AmountPayment7",
		"AmountPayment8", "AmountPayment9",
	}
	for i, n := range names {
		da.Amounts[i] = sc.float(n)
	}
	if err := sc.finish(); err != nil {
		return nil, err
	}
	return &da, nil
}

// ReadParameters reads the programmed parameter block.
func (c *Client) ReadParameters() (*Parameters, error) {
	fields, err := c.exec(newRequest("ReadParameters"))
	if err != nil {
		return nil, err
	}
	sc := newScanner(fields)
	p := &Parameters{
		POSNum:             sc.int("POSNum"),
		PrintLogo:          sc.bool("OptionPrintLogo"),
		AutoOpenDrawer:     sc.bool("OptionAutoOpenDrawer"),
		AutoCut:            sc.bool("OptionAutoCut"),
		ExternalDispManual: sc.bool("OptionExternalDispManagement"),
		EnableCurrency:     sc.bool("OptionEnableCurrency"),
		USBHost:            sc.bool("OptionUSBHost"),
	}
	if err := sc.finish(); err != nil {
		return nil, err
	}
	return p, nil
}
