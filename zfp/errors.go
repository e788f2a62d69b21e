package zfp

import (
	"fmt"

	"github.com/pkg/errors"
)

// ServerCode is a symbolic fault reported by the driver server itself,
// as opposed to a status pair reported by the fiscal device.
type ServerCode string

const (
	CodeServerDefsMismatch                       ServerCode = "ServerDefsMismatch"
	CodeServMismatchBetweenDefinitionAndFPResult ServerCode = "ServMismatchBetweenDefinitionAndFPResult"
	CodeServerAddressNotSet                      ServerCode = "ServerAddressNotSet"
	CodeServerConnectionError                    ServerCode = "ServerConnectionError"
	CodeServSockConnectionFailed                 ServerCode = "ServSockConnectionFailed"
	CodeServTCPAuth                              ServerCode = "ServTCPAuth"
	CodeServWaitOtherClientCmdProcessingTimeOut  ServerCode = "ServWaitOtherClientCmdProcessingTimeOut"
)

var serverCodeText = map[ServerCode]string{
	CodeServerDefsMismatch:                       "the client library version and the server definitions version do not match",
	CodeServMismatchBetweenDefinitionAndFPResult: "the client library version and the fiscal device firmware do not match",
	CodeServerAddressNotSet:                      "the driver server address is not set",
	CodeServerConnectionError:                    "connection from this client to the driver server is not established",
	CodeServSockConnectionFailed:                 "the driver server can not connect to the fiscal device; check that the device is on and connected, and that it shows 0.00 in register mode (Mode/Reg oper/0/Total)",
	CodeServTCPAuth:                              "wrong device TCP password",
	CodeServWaitOtherClientCmdProcessingTimeOut:  "processing of another client's command is taking too long",
}

// ServerError is a fault raised by the driver server before the command
// reached the device.
type ServerError struct {
	Code ServerCode
}

func (e *ServerError) Error() string {
	if text, ok := serverCodeText[e.Code]; ok {
		return fmt.Sprintf("driver server fault %s: %s", e.Code, text)
	}
	return fmt.Sprintf("driver server fault %s", e.Code)
}

// Device status byte texts, per the device status table.
var ste1Text = map[byte]string{
	0x30: "command is OK",
	0x31: "out of paper, printer failure",
	0x32: "registers overflow",
	0x33: "clock failure or incorrect date and time",
	0x34: "opened fiscal receipt",
	0x35: "payment residue account",
	0x36: "opened non-fiscal receipt",
	0x37: "payment is done but receipt is not closed",
	0x38: "fiscal memory failure",
	0x39: "incorrect password",
	0x3a: "missing external display",
	0x3b: "24 hours block - missing Z report",
	0x3c: "overheated printer thermal head",
	0x3d: "interrupted power supply in fiscal receipt",
	0x3e: "overflow EJ",
	0x3f: "insufficient conditions",
}

var ste2Text = map[byte]string{
	0x30: "command is OK",
	0x31: "invalid command",
	0x32: "command is illegal in current context",
	0x33: "Z daily report is not zero",
	0x34: "syntax error",
	0x35: "input registers overflow",
	0x36: "zero input registers",
	0x37: "unavailable transaction for correction",
	0x38: "insufficient amount on hand",
	0x3a: "no access",
}

// DeviceError is a failed command reported by the fiscal device through
// its two status bytes.
type DeviceError struct {
	STE1, STE2 byte
}

func (e *DeviceError) Error() string {
	t1, ok1 := ste1Text[e.STE1]
	if !ok1 {
		t1 = "unknown status"
	}
	t2, ok2 := ste2Text[e.STE2]
	if !ok2 {
		t2 = "unknown status"
	}
	return fmt.Sprintf("device error STE1=0x%02x (%s) STE2=0x%02x (%s)", e.STE1, t1, e.STE2, t2)
}

// Cause is the actionable class of a transport or device failure.
type Cause int

const (
	CauseUnknown Cause = iota
	// CauseDeviceBusyOpenReceipt means a previous receipt was left open on
	// the device. Recoverable via the cancel/close fallback chain.
	CauseDeviceBusyOpenReceipt
	// CauseDeviceUnreachable means the driver or the device can not be
	// reached. Fatal for the attempt, user-actionable.
	CauseDeviceUnreachable
	CauseServerVersionMismatch
	CauseServerAuthFailure
	CauseServerAddressNotSet
	// CauseUnclassifiedDeviceFault carries any other STE1/STE2 pair.
	CauseUnclassifiedDeviceFault
)

func (c Cause) String() string {
	switch c {
	case CauseDeviceBusyOpenReceipt:
		return "DeviceBusyOpenReceipt"
	case CauseDeviceUnreachable:
		return "DeviceUnreachable"
	case CauseServerVersionMismatch:
		return "ServerVersionMismatch"
	case CauseServerAuthFailure:
		return "ServerAuthFailure"
	case CauseServerAddressNotSet:
		return "ServerAddressNotSet"
	case CauseUnclassifiedDeviceFault:
		return "UnclassifiedDeviceFault"
	default:
		return "Unknown"
	}
}

// Classify maps a raised error to its actionable cause. The original raw
// codes stay available through the wrapped error itself.
func Classify(err error) Cause {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		switch {
		case devErr.STE1 == 0x34 || devErr.STE1 == 0x36 || devErr.STE1 == 0x37:
			return CauseDeviceBusyOpenReceipt
		case devErr.STE1 == 0x30 && devErr.STE2 == 0x32:
			// Command OK but illegal in current context: a receipt is in
			// a state the command does not fit, same recovery applies.
			return CauseDeviceBusyOpenReceipt
		default:
			return CauseUnclassifiedDeviceFault
		}
	}
	var srvErr *ServerError
	if errors.As(err, &srvErr) {
		switch srvErr.Code {
		case CodeServerDefsMismatch, CodeServMismatchBetweenDefinitionAndFPResult:
			return CauseServerVersionMismatch
		case CodeServTCPAuth:
			return CauseServerAuthFailure
		case CodeServerAddressNotSet:
			return CauseServerAddressNotSet
		case CodeServerConnectionError, CodeServSockConnectionFailed:
			return CauseDeviceUnreachable
		}
	}
	return CauseUnknown
}
