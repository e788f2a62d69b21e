package zfp

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer answers framed commands over an in-memory pipe and records
// every payload it saw.
type fakeServer struct {
	conn net.Conn

	mu   sync.Mutex
	seen []string
}

func startFakeServer(t *testing.T, handler func(cmd string, params []string) []string) (*Client, *fakeServer) {
	t.Helper()
	clientEnd, serverEnd := net.Pipe()
	srv := &fakeServer{conn: serverEnd}

	go func() {
		r := bufio.NewReader(serverEnd)
		for {
			payload, err := readFrame(r)
			if err != nil {
				return
			}
			fields := splitFields(payload)
			srv.mu.Lock()
			srv.seen = append(srv.seen, sanitizeFrame(payload))
			srv.mu.Unlock()

			resp := handler(fields[0], fields[1:])
			out := strings.Join(resp, "\t") + "\t"
			if _, err := serverEnd.Write(makeFrame([]byte(out))); err != nil {
				return
			}
		}
	}()

	c := newClient(clientEnd)
	t.Cleanup(func() {
		_ = c.Close()
		_ = serverEnd.Close()
	})
	return c, srv
}

func (s *fakeServer) payloads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seen...)
}

func ok(fields ...string) []string { return append([]string{"@"}, fields...) }

func TestIsCompatible(t *testing.T) {
	c, _ := startFakeServer(t, func(cmd string, params []string) []string {
		assert.Equal(t, "ServerGetDefsTimestamp", cmd)
		return ok(strconv.FormatInt(defsTimestamp, 10))
	})
	compatible, err := c.IsCompatible()
	require.NoError(t, err)
	assert.True(t, compatible)
}

func TestIncompatibleSessionFailsFast(t *testing.T) {
	c, srv := startFakeServer(t, func(cmd string, params []string) []string {
		return ok("1")
	})
	compatible, err := c.IsCompatible()
	require.NoError(t, err)
	require.False(t, compatible)
	require.Len(t, srv.payloads(), 1)

	// The poisoned session must not touch the network again.
	err = c.PaperFeed()
	require.Error(t, err)
	var srvErr *ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, CodeServerDefsMismatch, srvErr.Code)
	assert.Len(t, srv.payloads(), 1)
}

func TestOpenReceiptWireFormat(t *testing.T) {
	c, srv := startFakeServer(t, func(cmd string, params []string) []string {
		return ok()
	})
	require.NoError(t, c.OpenReceipt(1, "0", FiscalStepByStep))

	payloads := srv.payloads()
	require.Len(t, payloads, 1)
	assert.Equal(t,
		`OpenReceipt\tOperNum=01\tOperPass=0\tOptionFiscalReceiptPrintType=0\t`,
		payloads[0])
}

func TestStornoPLUWireFormat(t *testing.T) {
	c, srv := startFakeServer(t, func(cmd string, params []string) []string {
		return ok()
	})
	qty := -2.0
	err := c.StornoPLU(SellPLU{
		Name:     "Paine",
		VATClass: VATClassB,
		Price:    -3.5,
		Quantity: &qty,
	})
	require.NoError(t, err)

	payloads := srv.payloads()
	require.Len(t, payloads, 1)
	assert.Equal(t,
		`StornoPLU\tNamePLU=Paine\tOptionVATClass=B\tPrice=-3.50\tQuantity=-2\t`,
		payloads[0])
}

func TestDeviceErrorResponse(t *testing.T) {
	c, _ := startFakeServer(t, func(cmd string, params []string) []string {
		return []string{"!", "34", "32"}
	})
	err := c.CloseReceipt()
	require.Error(t, err)

	var devErr *DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, byte(0x34), devErr.STE1)
	assert.Equal(t, byte(0x32), devErr.STE2)
	assert.Equal(t, CauseDeviceBusyOpenReceipt, Classify(err))
}

func TestServerFaultResponse(t *testing.T) {
	c, _ := startFakeServer(t, func(cmd string, params []string) []string {
		return []string{"?", "ServTCPAuth"}
	})
	err := c.PaperFeed()
	require.Error(t, err)

	var srvErr *ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, CodeServTCPAuth, srvErr.Code)
	assert.Equal(t, CauseServerAuthFailure, Classify(err))
}

func TestReadLastAndTotalReceiptNum(t *testing.T) {
	c, _ := startFakeServer(t, func(cmd string, params []string) []string {
		assert.Equal(t, "ReadLastAndTotalReceiptNum", cmd)
		return ok("42", "1042")
	})
	rc, err := c.ReadLastAndTotalReceiptNum()
	require.NoError(t, err)
	assert.Equal(t, 42, rc.LastReceiptNum)
	assert.Equal(t, 1042, rc.TotalReceiptCounter)
}

func TestReadLastAndTotalReceiptNumMalformed(t *testing.T) {
	c, _ := startFakeServer(t, func(cmd string, params []string) []string {
		return ok("not-a-number", "1042")
	})
	_, err := c.ReadLastAndTotalReceiptNum()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LastReceiptNum")
}

func TestUnknownResponseStatus(t *testing.T) {
	c, _ := startFakeServer(t, func(cmd string, params []string) []string {
		return []string{"%", "what"}
	})
	err := c.PaperFeed()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown response status")
}

func TestServerAddr(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"printer.local", "printer.local:4444"},
		{"printer.local:9999", "printer.local:9999"},
		{"//10.0.0.5", "10.0.0.5:4444"},
		{"  10.0.0.5:4444 ", "10.0.0.5:4444"},
	}
	for _, c := range cases {
		got, err := ServerAddr(c.in)
		require.NoError(t, err, "input %q", c.in)
		assert.Equal(t, c.want, got)
	}

	_, err := ServerAddr("")
	require.Error(t, err)
	var srvErr *ServerError
	require.True(t, errors.As(err, &srvErr))
	assert.Equal(t, CodeServerAddressNotSet, srvErr.Code)
}

func TestDeviceSettingsValidate(t *testing.T) {
	tcp := DeviceSettings{IP: "10.0.0.8", Port: 8000}
	require.NoError(t, tcp.Validate())

	serial := DeviceSettings{SerialPort: "COM3", BaudRate: 115200}
	require.NoError(t, serial.Validate())

	both := DeviceSettings{IP: "10.0.0.8", Port: 8000, SerialPort: "COM3", BaudRate: 115200}
	assert.Error(t, both.Validate())

	neither := DeviceSettings{}
	assert.Error(t, neither.Validate())

	badPort := DeviceSettings{IP: "10.0.0.8", Port: 0}
	assert.Error(t, badPort.Validate())

	badBaud := DeviceSettings{SerialPort: "COM3"}
	assert.Error(t, badBaud.Validate())
}
