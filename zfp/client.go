package zfp

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// defsTimestamp identifies the command definition table this client was
// built from. The driver server refuses sessions whose definitions differ.
const defsTimestamp = 2108021650

// DefaultServerPort is used when the driver server address has no port.
const DefaultServerPort = 4444

// DefaultProbeTimeout bounds the advisory reachability probes.
const DefaultProbeTimeout = 2 * time.Second

// DeviceSettings is the address of the fiscal device as seen from the
// driver server: either TCP (ip, port, password) or serial (port, baud).
// Exactly one of the two must be configured.
type DeviceSettings struct {
	IP       string
	Port     int
	Password string

	SerialPort string
	BaudRate   int
}

func (s DeviceSettings) tcp() bool    { return s.IP != "" }
func (s DeviceSettings) serial() bool { return s.SerialPort != "" }

func (s DeviceSettings) Validate() error {
	switch {
	case s.tcp() && s.serial():
		return errors.New("device address has both TCP ip and serial port set; configure exactly one")
	case !s.tcp() && !s.serial():
		return errors.New("device address has neither TCP ip nor serial port set")
	case s.tcp() && (s.Port <= 0 || s.Port > 65535):
		return errors.Errorf("invalid device TCP port: %d", s.Port)
	case s.serial() && s.BaudRate <= 0:
		return errors.Errorf("invalid device serial speed: %d", s.BaudRate)
	}
	return nil
}

// ServerAddr normalizes a driver server address, filling in the default
// port when missing.
func ServerAddr(s string) (string, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "//")
	if s == "" {
		return "", &ServerError{Code: CodeServerAddressNotSet}
	}
	if host, port, err := net.SplitHostPort(s); err == nil {
		if _, err := strconv.Atoi(port); err != nil {
			return "", errors.Errorf("invalid driver server port in %q", s)
		}
		return net.JoinHostPort(host, port), nil
	}
	return net.JoinHostPort(s, strconv.Itoa(DefaultServerPort)), nil
}

// Probe attempts a raw TCP connection to addr. It is an advisory
// diagnostic: a passing probe does not replace error handling on the
// functional calls that follow.
func Probe(addr string, timeout time.Duration) error {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return err
	}
	return conn.Close()
}

// Client is one synchronous session with the driver server. One command
// is in flight at a time; an open receipt on the device belongs to this
// session until it is closed or cancelled.
type Client struct {
	conn    net.Conn
	r       *bufio.Reader
	enc     Encoding
	timeout time.Duration
	log     *zap.Logger

	mu           sync.Mutex
	incompatible bool
}

// Option configures a Client.
type Option func(*Client)

func WithEncoding(enc Encoding) Option {
	return func(c *Client) { c.enc = enc }
}

// WithTimeout sets the per-call read/write deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// Dial connects to the driver server. addr is host[:port]; the default
// port is 4444.
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	full, err := ServerAddr(addr)
	if err != nil {
		return nil, err
	}
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", full)
	if err != nil {
		return nil, errors.Wrapf(&ServerError{Code: CodeServerConnectionError}, "dial %s: %v", full, err)
	}
	return newClient(conn, opts...), nil
}

func newClient(conn net.Conn, opts ...Option) *Client {
	c := &Client{
		conn:    conn,
		r:       bufio.NewReader(conn),
		enc:     EncCP1250,
		timeout: 30 * time.Second,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Close() error { return c.conn.Close() }

// SetDeviceTCPSettings tells the driver server to reach the device over
// the LAN.
func (c *Client) SetDeviceTCPSettings(ip string, port int, password string) error {
	s := DeviceSettings{IP: ip, Port: port, Password: password}
	if err := s.Validate(); err != nil {
		return err
	}
	r := newRequest("ServerSetDeviceTcpSettings").
		str("DeviceIP", ip, 15).
		num("DevicePort", float64(port), "#####").
		optStr("Password", password, 100)
	_, err := c.exec(r)
	return err
}

// SetDeviceSerialSettings tells the driver server to reach the device
// over a serial port local to the server host.
func (c *Client) SetDeviceSerialSettings(port string, baud int) error {
	s := DeviceSettings{SerialPort: port, BaudRate: baud}
	if err := s.Validate(); err != nil {
		return err
	}
	r := newRequest("ServerSetDeviceSerialSettings").
		str("SerialPort", port, 30).
		num("BaudRate", float64(baud), "#######")
	_, err := c.exec(r)
	return err
}

// SetDeviceSettings applies whichever device address mode is configured.
func (c *Client) SetDeviceSettings(s DeviceSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.tcp() {
		return c.SetDeviceTCPSettings(s.IP, s.Port, s.Password)
	}
	return c.SetDeviceSerialSettings(s.SerialPort, s.BaudRate)
}

// IsCompatible compares the client's command definitions against the
// server's. It must pass once per session before functional commands; on
// mismatch the session is poisoned and every later call fails fast with
// the version error, without touching the network.
func (c *Client) IsCompatible() (bool, error) {
	fields, err := c.exec(newRequest("ServerGetDefsTimestamp"))
	if err != nil {
		return false, err
	}
	sc := newScanner(fields)
	remote := sc.int64("DefsTimestamp")
	if err := sc.finish(); err != nil {
		return false, err
	}
	if remote != defsTimestamp {
		c.mu.Lock()
		c.incompatible = true
		c.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// exec sends one command and decodes one response. Synchronous, blocking,
// one call in flight per session.
func (c *Client) exec(r *request) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.incompatible {
		return nil, errors.Wrap(&ServerError{Code: CodeServerDefsMismatch},
			"session is unusable")
	}

	payload, err := r.payload(c.enc)
	if err != nil {
		return nil, err
	}

	c.log.Debug("tx", zap.String("frame", sanitizeFrame(payload)))

	deadline := time.Now().Add(c.timeout)
	_ = c.conn.SetWriteDeadline(deadline)
	if _, err := c.conn.Write(makeFrame(payload)); err != nil {
		return nil, errors.Wrapf(err, "%s: write", r.name)
	}

	_ = c.conn.SetReadDeadline(deadline)
	resp, err := readFrame(c.r)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: read", r.name)
	}

	c.log.Debug("rx", zap.String("frame", sanitizeFrame(resp)))

	return parseResponse(r.name, splitFields(resp))
}

// parseResponse maps the status field to a result or a typed error:
// "@" success with positional fields, "!" a device STE1/STE2 pair,
// "?" a symbolic server fault.
func parseResponse(cmd string, fields []string) ([]string, error) {
	if len(fields) == 0 {
		return nil, errors.Errorf("%s: empty response", cmd)
	}
	switch fields[0] {
	case "@":
		return fields[1:], nil
	case "!":
		if len(fields) < 3 {
			return nil, errors.Errorf("%s: malformed device error response", cmd)
		}
		ste1, err1 := strconv.ParseUint(fields[1], 16, 8)
		ste2, err2 := strconv.ParseUint(fields[2], 16, 8)
		if err1 != nil || err2 != nil {
			return nil, errors.Errorf("%s: malformed status bytes %q %q", cmd, fields[1], fields[2])
		}
		return nil, errors.Wrap(&DeviceError{STE1: byte(ste1), STE2: byte(ste2)}, cmd)
	case "?":
		if len(fields) < 2 {
			return nil, errors.Errorf("%s: malformed server fault response", cmd)
		}
		return nil, errors.Wrap(&ServerError{Code: ServerCode(fields[1])}, cmd)
	default:
		return nil, errors.Errorf("%s: unknown response status %q", cmd, fields[0])
	}
}
