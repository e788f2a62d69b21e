package zfp

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Response records are fixed named tuples, one per command, filled from
// the positional fields of the reply. Field order is part of the protocol
// definition and is never inferred.

// fieldScanner walks the positional fields of a response. The first
// decoding failure sticks, named after the offending field.
type fieldScanner struct {
	fields []string
	i      int
	err    error
}

func newScanner(fields []string) *fieldScanner {
	return &fieldScanner{fields: fields}
}

func (s *fieldScanner) next(name string) (string, bool) {
	if s.err != nil {
		return "", false
	}
	if s.i >= len(s.fields) {
		s.err = errors.Errorf("missing field %s", name)
		return "", false
	}
	v := s.fields[s.i]
	s.i++
	return v, true
}

func (s *fieldScanner) str(name string) string {
	v, _ := s.next(name)
	return v
}

func (s *fieldScanner) int(name string) int {
	v, ok := s.next(name)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		s.err = errors.Errorf("field %s: bad integer %q", name, v)
		return 0
	}
	return n
}

func (s *fieldScanner) int64(name string) int64 {
	v, ok := s.next(name)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		s.err = errors.Errorf("field %s: bad integer %q", name, v)
		return 0
	}
	return n
}

func (s *fieldScanner) float(name string) float64 {
	v, ok := s.next(name)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		s.err = errors.Errorf("field %s: bad number %q", name, v)
		return 0
	}
	return f
}

func (s *fieldScanner) bool(name string) bool {
	v, ok := s.next(name)
	if !ok {
		return false
	}
	switch v {
	case "0":
		return false
	case "1":
		return true
	default:
		s.err = errors.Errorf("field %s: bad flag %q", name, v)
		return false
	}
}

func (s *fieldScanner) date(name, layout string) time.Time {
	v, ok := s.next(name)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(layout, v)
	if err != nil {
		s.err = errors.Errorf("field %s: bad date %q", name, v)
		return time.Time{}
	}
	return t
}

func (s *fieldScanner) finish() error {
	return s.err
}

// ReceiptCounters is the reply to ReadLastAndTotalReceiptNum: the number
// of the last issued receipt (####) and the total receipt counter
// (#######).
type ReceiptCounters struct {
	LastReceiptNum      int
	TotalReceiptCounter int
}

// VATRates is the reply to ReadVATrates, percentages per VAT class as
// last stored in the fiscal memory.
type VATRates struct {
	RateA, RateB, RateC, RateD, RateE float64
	AlteTaxeF                         float64
}

// CurrentReceiptInfo is the reply to ReadCurrentReceiptInfo.
type CurrentReceiptInfo struct {
	IsOpened           bool
	SalesNumber        int
	SubtotalVATA       float64
	SubtotalVATB       float64
	SubtotalVATC       float64
	SubtotalVATD       float64
	SubtotalVATE       float64
	ForbiddenVoid      bool
	VATWithoutPrinting bool
	DetailedFormat     bool
	PaymentInitiated   bool
	PaymentFinalized   bool
	PowerDownInReceipt bool
	ClientReceipt      bool
	ChangeAmount       float64
	ChangeType         byte
	AlteTaxeValue      float64
}

// DailyAmounts is the reply to ReadDailyAvailableAmounts: the amount on
// hand per payment type 0..9.
type DailyAmounts struct {
	Amounts [10]float64
}

// Parameters is the programmed device parameter block, shared by
// ProgParameters and ReadParameters.
type Parameters struct {
	POSNum             int
	PrintLogo          bool
	AutoOpenDrawer     bool
	AutoCut            bool
	ExternalDispManual bool
	EnableCurrency     bool
	USBHost            bool
}

// Status is the detailed device status decoded from ReadStatus. One
// boolean per status bit, in protocol order.
type Status struct {
	FMReadOnly                 bool
	PowerDownInFiscalReceipt   bool
	PrinterOverheated          bool
	IncorrectTime              bool
	IncorrectDate              bool
	RAMReset                   bool
	DateTimeHardwareError      bool
	NoPaper                    bool
	ReportsRegistersOverflow   bool
	BlockedAfter24h            bool
	NonZeroDailyReport         bool
	NonZeroArticleReport       bool
	NonZeroOperatorReport      bool
	NonPrintedCopy             bool
	OpenedNonFiscalReceipt     bool
	OpenedFiscalReceipt        bool
	StandardCashReceipt        bool
	VATIncludedInReceipt       bool
	EJNearFull                 bool
	EJFull                     bool
	NoFMModule                 bool
	FMError                    bool
	FMFull                     bool
	FMNearFull                 bool
	DecimalPointFractions      bool
	FMFiscalized               bool
	FMProduced                 bool
	AutomaticCutting           bool
	ExternalDisplayManagement  bool
	MissingExternalDisplay     bool
	DrawerAutomaticOpening     bool
	CustomerLogoInReceipt      bool
	ServiceJumper              bool
	NoSecIC                    bool
	NoCertificates             bool
	NoSDCardResponse           bool
	WrongSDCard                bool
	NearPaperEnd               bool
}

type statusBit struct {
	name string
	dst  *bool
}

// bits lists the status flags in protocol order.
func (st *Status) bits() []statusBit {
	return []statusBit{
		{"FM_Read_only", &st.FMReadOnly},
		{"Power_down_in_opened_fiscal_receipt", &st.PowerDownInFiscalReceipt},
		{"Printer_not_ready_or_overheated", &st.PrinterOverheated},
		{"Incorrect_time", &st.IncorrectTime},
		{"Incorrect_date", &st.IncorrectDate},
		{"RAM_reset", &st.RAMReset},
		{"Date_and_time_hardware_error", &st.DateTimeHardwareError},
		{"Printer_not_ready_or_no_paper", &st.NoPaper},
		{"Reports_registers_overflow", &st.ReportsRegistersOverflow},
		{"Blocking_after_24_hours", &st.BlockedAfter24h},
		{"Non_zero_daily_report", &st.NonZeroDailyReport},
		{"Non_zero_article_report", &st.NonZeroArticleReport},
		{"Non_zero_operator_report", &st.NonZeroOperatorReport},
		{"Non_printed_copy", &st.NonPrintedCopy},
		{"Opened_Non_fiscal_Receipt", &st.OpenedNonFiscalReceipt},
		{"Opened_Fiscal_Receipt", &st.OpenedFiscalReceipt},
		{"Standard_Cash_Receipt", &st.StandardCashReceipt},
		{"VAT_included_in_the_receipt", &st.VATIncludedInReceipt},
		{"EJ_near_full", &st.EJNearFull},
		{"EJ_full", &st.EJFull},
		{"No_FM_module", &st.NoFMModule},
		{"FM_error", &st.FMError},
		{"FM_full", &st.FMFull},
		{"FM_near_full", &st.FMNearFull},
		{"Decimal_point", &st.DecimalPointFractions},
		{"FM_fiscalized", &st.FMFiscalized},
		{"FM_produced", &st.FMProduced},
		{"Printer_automatic_cutting", &st.AutomaticCutting},
		{"External_Display_Management", &st.ExternalDisplayManagement},
		{"Missing_external_display", &st.MissingExternalDisplay},
		{"Drawer_automatic_opening", &st.DrawerAutomaticOpening},
		{"Customer_logo_included_in_the_receipt", &st.CustomerLogoInReceipt},
		{"Service_jumper", &st.ServiceJumper},
		{"No_Sec_IC", &st.NoSecIC},
		{"No_certificates", &st.NoCertificates},
		{"No_SD_card_response", &st.NoSDCardResponse},
		{"Wrong_SD_card", &st.WrongSDCard},
		{"Near_Paper_end", &st.NearPaperEnd},
	}
}

// Raised returns the names of the status flags currently set, in
// protocol order.
func (st *Status) Raised() []string {
	var out []string
	for _, b := range st.bits() {
		if *b.dst {
			out = append(out, b.name)
		}
	}
	return out
}

func decodeStatus(fields []string) (*Status, error) {
	sc := newScanner(fields)
	var st Status
	for _, b := range st.bits() {
		*b.dst = sc.bool(b.name)
	}
	if err := sc.finish(); err != nil {
		return nil, err
	}
	return &st, nil
}
