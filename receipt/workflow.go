package receipt

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"cbssolutions.ro/zfp-connector/zfp"
)

// State is the position of a print attempt in its lifecycle. One attempt
// moves strictly forward, except for Recovering, reachable only from a
// failed open.
type State int

const (
	StateIdle State = iota
	StateConnectivityChecked
	StateOpened
	StateLinesEmitted
	StatePaymentsEmitted
	StateClosed
	StateFinalized
	StateRecovering
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnectivityChecked:
		return "connectivity-checked"
	case StateOpened:
		return "opened"
	case StateLinesEmitted:
		return "lines-emitted"
	case StatePaymentsEmitted:
		return "payments-emitted"
	case StateClosed:
		return "closed"
	case StateFinalized:
		return "finalized"
	case StateRecovering:
		return "recovering"
	default:
		return "unknown"
	}
}

// Device is the command surface the workflow drives. *zfp.Client
// implements it.
type Device interface {
	IsCompatible() (bool, error)
	ReadLastAndTotalReceiptNum() (*zfp.ReceiptCounters, error)

	OpenReceipt(operNum int, operPass string, printType zfp.FiscalPrintType) error
	OpenNonFiscalReceipt(operNum int, operPass string, printType zfp.NonFiscalPrintType) error
	CloseReceipt() error
	CloseNonFiscalReceipt() error
	CancelReceipt() error
	CashPayCloseReceipt() error

	SellPLUwithSpecifiedVAT(p zfp.SellPLU) error
	StornoPLU(p zfp.SellPLU) error
	Payment(t zfp.PaymentType, amount float64) error

	PrintText(text string) error
	PrintBarcode(t zfp.BarcodeType, length int, data string) error
	CashDrawerOpen() error
	PaperFeed() error
	CutPaper() error
	PrintDailyReport(z zfp.Zeroing) error

	Close() error
}

// Dialer opens a configured session to the driver server.
type Dialer func(ctx context.Context) (Device, error)

// Prober checks raw TCP reachability of addr.
type Prober func(addr string, timeout time.Duration) error

// Workflow drives one order through the receipt lifecycle: open, lines,
// payments, footer, close, read-back. It owns the device's open-receipt
// state from Open to Close or Cancel, and never leaves an order marked
// as printed without a device-confirmed receipt number.
type Workflow struct {
	cfg   *Config
	log   *zap.Logger
	state State

	probe Prober
	dial  Dialer
}

// Option configures a Workflow.
type Option func(*Workflow)

func WithLogger(log *zap.Logger) Option {
	return func(w *Workflow) { w.log = log }
}

// WithDialer replaces how the workflow reaches the driver server.
func WithDialer(d Dialer) Option {
	return func(w *Workflow) { w.dial = d }
}

// WithProber replaces the raw socket reachability check.
func WithProber(p Prober) Option {
	return func(w *Workflow) { w.probe = p }
}

func New(cfg *Config, opts ...Option) *Workflow {
	w := &Workflow{
		cfg:   cfg,
		log:   zap.NewNop(),
		probe: zfp.Probe,
	}
	for _, o := range opts {
		o(w)
	}
	if w.dial == nil {
		w.dial = w.dialServer
	}
	return w
}

// State reports where the last attempt got to.
func (w *Workflow) State() State { return w.state }

func (w *Workflow) dialServer(ctx context.Context) (Device, error) {
	opts := []zfp.Option{
		zfp.WithEncoding(w.cfg.encoding()),
		zfp.WithLogger(w.log),
	}
	if w.cfg.CallTimeout > 0 {
		opts = append(opts, zfp.WithTimeout(w.cfg.CallTimeout))
	}
	c, err := zfp.Dial(ctx, w.cfg.ServerAddress, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.SetDeviceSettings(w.cfg.Device); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// Print runs one full print attempt for the order. On success the
// receipt number and the before/after counters are persisted onto the
// order and returned; on failure a classified error is returned and the
// order stays unmarked.
func (w *Workflow) Print(ctx context.Context, o *Order) (*Outcome, error) {
	w.state = StateIdle

	if o.ReceiptNumber != "" {
		return nil, &AlreadyPrintedError{ReceiptNumber: o.ReceiptNumber}
	}
	if err := w.cfg.Validate(); err != nil {
		return nil, err
	}

	dev, err := w.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	before, err := dev.ReadLastAndTotalReceiptNum()
	if err != nil {
		return nil, errors.Wrap(err, "reading receipt counters before print")
	}

	nonFiscal := w.cfg.ForceNonFiscal || o.Total <= 0.01
	w.log.Info("opening receipt",
		zap.String("order", o.Reference),
		zap.Bool("non_fiscal", nonFiscal),
		zap.Float64("total", o.Total))

	if err := w.open(dev, nonFiscal); err != nil {
		return nil, w.recoverOpen(dev, err)
	}
	w.state = StateOpened

	if nonFiscal {
		err = w.emitNonFiscalBody(dev, o)
	} else {
		err = w.emitFiscalLines(dev, o)
	}
	if err != nil {
		return nil, err
	}
	w.state = StateLinesEmitted

	if err := w.emitPayments(dev, o, nonFiscal); err != nil {
		return nil, err
	}
	w.state = StatePaymentsEmitted

	if err := w.emitFooterAndBarcode(dev, o); err != nil {
		return nil, err
	}

	if nonFiscal {
		err = dev.CloseNonFiscalReceipt()
	} else {
		err = dev.CloseReceipt()
	}
	if err != nil {
		return nil, errors.Wrap(err, "closing receipt")
	}
	w.state = StateClosed

	after, err := dev.ReadLastAndTotalReceiptNum()
	if err != nil {
		return nil, errors.Wrap(err, "reading receipt counters after print")
	}

	outcome := &Outcome{
		ReceiptNumber: strconv.Itoa(after.LastReceiptNum),
		Before:        Counters{LastReceiptNum: before.LastReceiptNum, TotalReceiptCounter: before.TotalReceiptCounter},
		After:         Counters{LastReceiptNum: after.LastReceiptNum, TotalReceiptCounter: after.TotalReceiptCounter},
	}
	o.ReceiptNumber = outcome.ReceiptNumber
	o.Before = &outcome.Before
	o.After = &outcome.After
	w.state = StateFinalized

	if w.cfg.CutAfterPrint {
		// The receipt number is already durably obtained; a cutter
		// failure must not fail the attempt.
		if err := w.feedAndCut(dev); err != nil {
			w.log.Warn("paper cut after print failed", zap.Error(err))
		}
	}

	w.log.Info("fiscal print done",
		zap.String("order", o.Reference),
		zap.String("receipt_number", outcome.ReceiptNumber))
	return outcome, nil
}

// connect runs the connectivity pre-checks, dials the driver server,
// applies the device settings and verifies protocol compatibility.
func (w *Workflow) connect(ctx context.Context) (Device, error) {
	serverAddr, err := zfp.ServerAddr(w.cfg.ServerAddress)
	if err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}
	if err := w.probe(serverAddr, zfp.DefaultProbeTimeout); err != nil {
		return nil, &ConnectivityError{Target: "driver server", Addr: serverAddr, Reason: err.Error()}
	}
	if w.cfg.Device.IP != "" {
		devAddr := fmt.Sprintf("%s:%d", w.cfg.Device.IP, w.cfg.Device.Port)
		if err := w.probe(devAddr, zfp.DefaultProbeTimeout); err != nil {
			return nil, &ConnectivityError{Target: "fiscal device", Addr: devAddr, Reason: err.Error()}
		}
	}
	w.state = StateConnectivityChecked

	dev, err := w.dial(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to driver server")
	}
	ok, err := dev.IsCompatible()
	if err != nil {
		_ = dev.Close()
		return nil, errors.Wrap(err, "compatibility check")
	}
	if !ok {
		_ = dev.Close()
		return nil, &VersionError{Cause: errors.New("definitions timestamp differs")}
	}
	return dev, nil
}

func (w *Workflow) open(dev Device, nonFiscal bool) error {
	if nonFiscal {
		return dev.OpenNonFiscalReceipt(defaultOperNum, w.cfg.operatorPassword(), zfp.NonFiscalStepByStep)
	}
	return dev.OpenReceipt(defaultOperNum, w.cfg.operatorPassword(), zfp.FiscalStepByStep)
}

// recoverOpen runs the stuck-receipt fallback chain: cancel, else close
// through payment, else close as non-fiscal. Whichever step succeeds,
// the attempt still reports failure; the device is left closed so the
// caller's retry can open cleanly.
func (w *Workflow) recoverOpen(dev Device, openErr error) error {
	w.state = StateRecovering
	cause := zfp.Classify(openErr)
	w.log.Warn("open receipt failed, attempting recovery",
		zap.String("cause", cause.String()),
		zap.Error(openErr))

	if err := dev.CancelReceipt(); err == nil {
		return &RecoveredError{Recovery: "the stuck receipt was cancelled", Cause: openErr}
	}
	if err := dev.CashPayCloseReceipt(); err == nil {
		return &RecoveredError{Recovery: "the receipt stuck in payment was cash-paid and closed", Cause: openErr}
	}
	if err := dev.CloseNonFiscalReceipt(); err == nil {
		return &RecoveredError{Recovery: "an open non-fiscal receipt was closed", Cause: openErr}
	}
	return errors.Wrapf(openErr, "opening receipt failed (%s) and recovery failed", cause)
}

// splitName transliterates and splits a name for printing; the last
// segment is what goes into the PLU name parameter.
func (w *Workflow) splitName(name string) []string {
	return SplitName(zfp.Transliterate(name), w.cfg.lineWidth(), w.cfg.nameMaxLines())
}

// emitFiscalLines registers the order lines: all sale lines first, then
// all storno lines with negated price and quantity, each in original
// order. Storno lines share the receipt's VAT class mapping; mixed-VAT
// storno on one receipt is a known device limitation.
func (w *Workflow) emitFiscalLines(dev Device, o *Order) error {
	ordered := append(o.saleLines(), o.refundLines()...)
	for _, line := range ordered {
		segs := w.splitName(line.Name)
		for _, s := range segs[:len(segs)-1] {
			if err := dev.PrintText(s); err != nil {
				return errors.Wrapf(err, "printing name line for %q", line.Name)
			}
		}
		plu := zfp.SellPLU{
			Name:     segs[len(segs)-1],
			VATClass: w.cfg.vatClassFor(line.TaxID),
		}
		qty := line.Quantity
		if line.Refund {
			plu.Price = -line.UnitPrice
			qty = -line.Quantity
			plu.Quantity = &qty
			if err := dev.StornoPLU(plu); err != nil {
				return errors.Wrapf(err, "storno line %q", line.Name)
			}
			continue
		}
		plu.Price = line.UnitPrice
		plu.Quantity = &qty
		if err := dev.SellPLUwithSpecifiedVAT(plu); err != nil {
			return errors.Wrapf(err, "sale line %q", line.Name)
		}
	}
	return nil
}

// emitNonFiscalBody prints the order as plain text: no protocol-level
// price accumulation happens on a non-fiscal receipt.
func (w *Workflow) emitNonFiscalBody(dev Device, o *Order) error {
	if refunds := o.refundLines(); len(refunds) > 0 {
		ids := make([]int64, 0, len(refunds))
		for _, l := range refunds {
			ids = append(ids, l.ID)
		}
		if err := dev.PrintText(fmt.Sprintf("RETUR AL: %v", ids)); err != nil {
			return errors.Wrap(err, "printing refund banner")
		}
	}
	for _, line := range o.Lines {
		for _, s := range w.splitName(line.Name) {
			if err := dev.PrintText(s); err != nil {
				return errors.Wrapf(err, "printing name line for %q", line.Name)
			}
		}
		amounts := fmt.Sprintf("%0.1fX%0.2fX tax=%0.2f", line.Quantity, line.UnitPrice, line.SubtotalInclTax)
		if err := dev.PrintText(amounts); err != nil {
			return errors.Wrapf(err, "printing amounts for %q", line.Name)
		}
	}
	return errors.Wrap(dev.PrintText(fmt.Sprintf("TOTAL: %0.2f", o.Total)), "printing total")
}

// emitPayments registers the order payments. The device accumulates one
// amount per payment type, so cash is aggregated into a single call,
// with the individual amounts echoed as text when there is more than
// one; non-cash payments are submitted individually as type 1.
//
// An order with no payment records submits nothing: the device rejects
// the close of an unbalanced fiscal receipt, which is preferable to
// inventing a tender type.
func (w *Workflow) emitPayments(dev Device, o *Order, nonFiscal bool) error {
	if nonFiscal {
		return w.echoPaymentsText(dev, o)
	}

	var cash, nonCash []Payment
	for _, p := range o.Payments {
		if p.Cash {
			cash = append(cash, p)
		} else {
			nonCash = append(nonCash, p)
		}
	}
	if len(o.Payments) == 0 {
		w.log.Warn("order has no payment records; submitting no payment",
			zap.String("order", o.Reference))
	}

	if len(cash) > 1 {
		// The device only records the aggregated amount per type, so
		// echo each tender for the customer first.
		for _, p := range cash {
			if err := dev.PrintText("Numerar:" + fmtAmount(p.Amount)); err != nil {
				return errors.Wrap(err, "printing cash tender line")
			}
		}
	}
	if len(cash) > 0 {
		var sum float64
		for _, p := range cash {
			sum += p.Amount
		}
		if sum < 0 {
			w.log.Error("aggregated cash amount is negative; the device is expected to reject it",
				zap.String("order", o.Reference),
				zap.Float64("amount", sum))
		}
		if w.cfg.OpenCashDrawer {
			if err := dev.CashDrawerOpen(); err != nil {
				return errors.Wrap(err, "opening cash drawer")
			}
		}
		if err := dev.Payment(zfp.PaymentCash, sum); err != nil {
			return errors.Wrap(err, "cash payment")
		}
	}
	for _, p := range nonCash {
		if err := dev.Payment(zfp.PaymentCard, p.Amount); err != nil {
			return errors.Wrap(err, "non-cash payment")
		}
	}
	return nil
}

func (w *Workflow) echoPaymentsText(dev Device, o *Order) error {
	for _, p := range o.Payments {
		if p.Cash {
			if err := dev.PrintText(fmt.Sprintf("PLATA prin casa: %slei", fmtAmount(p.Amount))); err != nil {
				return errors.Wrap(err, "printing cash payment line")
			}
			if w.cfg.OpenCashDrawer {
				if err := dev.CashDrawerOpen(); err != nil {
					return errors.Wrap(err, "opening cash drawer")
				}
			}
			continue
		}
		if err := dev.PrintText(fmt.Sprintf("PLATA NU prin casa: %slei", fmtAmount(p.Amount))); err != nil {
			return errors.Wrap(err, "printing non-cash payment line")
		}
	}
	return nil
}

// emitFooterAndBarcode prints the optional footer text and the order
// reference, as a barcode when configured and always as text.
func (w *Workflow) emitFooterAndBarcode(dev Device, o *Order) error {
	if w.cfg.FooterText != "" {
		footer := zfp.Transliterate(w.cfg.FooterText)
		for _, line := range splitWidth(footer, w.cfg.lineWidth()) {
			if err := dev.PrintText(line); err != nil {
				return errors.Wrap(err, "printing footer")
			}
		}
	}
	data := o.barcodeData()
	if data == "" {
		return nil
	}
	if w.cfg.PrintBarcode {
		// CODE 39 is the symbology the devices in the field accept.
		if err := dev.PrintBarcode(zfp.BarcodeCode39, len(data), data); err != nil {
			return errors.Wrap(err, "printing barcode")
		}
	}
	return errors.Wrap(dev.PrintText(data), "printing reference")
}

func (w *Workflow) feedAndCut(dev Device) error {
	if err := dev.PaperFeed(); err != nil {
		return err
	}
	return dev.CutPaper()
}

// splitWidth splits text into width-sized chunks without a line cap.
func splitWidth(text string, width int) []string {
	runes := []rune(text)
	var out []string
	for i := 0; i < len(runes); i += width {
		end := i + width
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}

func fmtAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
