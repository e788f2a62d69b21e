package receipt

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"cbssolutions.ro/zfp-connector/zfp"
)

// PrintDailyReport prints the daily fiscal report, zeroing the daily
// registers for Z or leaving them for X. It runs the same connectivity
// and compatibility preamble as a receipt print.
func (w *Workflow) PrintDailyReport(ctx context.Context, z zfp.Zeroing) error {
	w.state = StateIdle
	if err := w.cfg.Validate(); err != nil {
		return err
	}
	dev, err := w.connect(ctx)
	if err != nil {
		return err
	}
	defer dev.Close()

	w.log.Info("printing daily report", zap.String("zeroing", string(z)))
	if err := dev.PrintDailyReport(z); err != nil {
		return errors.Wrap(err, "daily report")
	}
	if w.cfg.CutAfterPrint {
		if err := w.feedAndCut(dev); err != nil {
			w.log.Warn("paper cut after report failed", zap.Error(err))
		}
	}
	return nil
}

// TestPrint prints a short non-fiscal receipt so an operator can verify
// the whole chain, configuration through paper, without touching the
// fiscal registers.
func (w *Workflow) TestPrint(ctx context.Context) error {
	w.state = StateIdle
	if err := w.cfg.Validate(); err != nil {
		return err
	}
	dev, err := w.connect(ctx)
	if err != nil {
		return err
	}
	defer dev.Close()

	if err := dev.OpenNonFiscalReceipt(defaultOperNum, w.cfg.operatorPassword(), zfp.NonFiscalStepByStep); err != nil {
		return w.recoverOpen(dev, err)
	}
	w.state = StateOpened

	lines := []string{
		"TEST PRINT",
		time.Now().Format("02-01-2006 15:04:05"),
		"Configuration OK",
	}
	for _, line := range lines {
		if err := dev.PrintText(line); err != nil {
			return errors.Wrap(err, "printing test line")
		}
	}
	if err := dev.CloseNonFiscalReceipt(); err != nil {
		return errors.Wrap(err, "closing test receipt")
	}
	w.state = StateClosed

	if w.cfg.CutAfterPrint {
		if err := w.feedAndCut(dev); err != nil {
			w.log.Warn("paper cut after test print failed", zap.Error(err))
		}
	}
	w.state = StateFinalized
	return nil
}
