package receipt

import "fmt"

const supportHint = "Contact support if the problem persists."

// ConfigError reports missing or conflicting configuration. No network
// call was attempted.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("fiscal printer configuration error: %s. %s", e.Reason, supportHint)
}

// ConnectivityError reports that the driver server or the device did not
// answer the reachability probe. Fatal for this attempt, user-actionable.
type ConnectivityError struct {
	Target string // "driver server" or "fiscal device"
	Addr   string
	Reason string
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("the %s at %s is not reachable: %s. "+
		"Check that it is powered on and connected; a fiscal printer must show 0.00 in register mode (Mode/Reg oper/0/Total). %s",
		e.Target, e.Addr, e.Reason, supportHint)
}

// AlreadyPrintedError guards against double fiscalization: the order
// already carries a device-confirmed receipt number.
type AlreadyPrintedError struct {
	ReceiptNumber string
}

func (e *AlreadyPrintedError) Error() string {
	return fmt.Sprintf("this order is already fiscal-printed as receipt %s", e.ReceiptNumber)
}

// VersionError reports a definitions mismatch between this client and
// the driver server. The session is unusable.
type VersionError struct {
	Cause error
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("driver server definitions and client code have different versions: %v", e.Cause)
}

func (e *VersionError) Unwrap() error { return e.Cause }

// RecoveredError reports that opening the receipt failed because the
// device held a stuck receipt, and that the recovery chain left the
// device closed. The attempt itself failed; the caller should retry.
type RecoveredError struct {
	Recovery string
	Cause    error
}

func (e *RecoveredError) Error() string {
	return fmt.Sprintf("a previous receipt was left open on the device (%v); %s. Print again.", e.Cause, e.Recovery)
}

func (e *RecoveredError) Unwrap() error { return e.Cause }
