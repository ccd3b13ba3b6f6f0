// Package rtltcp is an active client for the RTL_TCP remote SDR
// protocol (spec.md §4.8/§6): connect, read the welcome frame, issue
// the startup commands, then stream raw I/Q bytes with a data-timeout
// watchdog. Grounded on internal/rtlsdr.Device's "device handle +
// context + cancel" shape, retargeted at a TCP socket instead of
// libusb.
package rtltcp

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// TunerType identifies the remote dongle's tuner chip, reported in the
// welcome frame.
type TunerType uint32

const (
	TunerUnknown TunerType = iota
	TunerE4000
	TunerFC0012
	TunerFC0013
	TunerFC2580
	TunerR820T
	TunerR828D
)

// Command bytes for the rtl_tcp control protocol (osmocom rtl-sdr
// convention); only the three spec.md §4.8 names are exercised here.
const (
	cmdSetFrequency      byte = 0x01
	cmdSetSampleRate     byte = 0x02
	cmdSetFreqCorrection byte = 0x05
)

const (
	welcomeMagic    = "RTL0"
	welcomeSize     = 12
	defaultConnect  = 5 * time.Second
	defaultDataWait = 2 * time.Second
)

// r820tGains is the fixed 29-step gain table (tenths of dB) librtlsdr
// reports for the R820T/R820T2 tuner; spec.md's test scenario 5
// expects exactly 29 values populated once the welcome reports
// TunerR820T.
var r820tGains = []int{
	0, 9, 14, 27, 37, 77, 87, 125, 144, 157,
	166, 197, 207, 229, 254, 280, 297, 328, 338, 364,
	372, 386, 402, 421, 434, 439, 445, 480, 496,
}

// GainTable returns the known gain steps (tenths of dB) for tuner, or
// nil if no table is known for it.
func GainTable(tuner TunerType) []int {
	if tuner == TunerR820T || tuner == TunerR828D {
		out := make([]int, len(r820tGains))
		copy(out, r820tGains)
		return out
	}
	return nil
}

// Welcome is the parsed 12-byte handshake frame.
type Welcome struct {
	TunerType TunerType
	GainCount uint32
}

// Client is an active RTL_TCP connection.
type Client struct {
	conn   net.Conn
	logger *logrus.Logger

	Welcome Welcome
	Gains   []int
}

// Dial connects to addr and performs the welcome handshake.
func Dial(ctx context.Context, addr string, logger *logrus.Logger) (*Client, error) {
	d := net.Dialer{Timeout: defaultConnect}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("rtltcp: dial %s: %w", addr, err)
	}

	c := &Client{conn: conn, logger: logger}
	if err := c.handshake(); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) handshake() error {
	buf := make([]byte, welcomeSize)
	if _, err := io.ReadFull(c.conn, buf); err != nil {
		return fmt.Errorf("rtltcp: reading welcome: %w", err)
	}
	if string(buf[:4]) != welcomeMagic {
		return fmt.Errorf("rtltcp: bad welcome magic %q", buf[:4])
	}

	c.Welcome = Welcome{
		TunerType: TunerType(binary.BigEndian.Uint32(buf[4:8])),
		GainCount: binary.BigEndian.Uint32(buf[8:12]),
	}
	c.Gains = GainTable(c.Welcome.TunerType)

	c.logger.WithFields(logrus.Fields{
		"tuner_type": c.Welcome.TunerType,
		"gain_count": c.Welcome.GainCount,
	}).Info("rtltcp welcome received")
	return nil
}

func (c *Client) sendCommand(cmd byte, param uint32) error {
	buf := make([]byte, 5)
	buf[0] = cmd
	binary.BigEndian.PutUint32(buf[1:], param)
	_, err := c.conn.Write(buf)
	return err
}

// Configure issues the three startup commands spec.md §4.8 names:
// SET_SAMPLE_RATE, SET_FREQUENCY, SET_FREQ_CORRECTION.
func (c *Client) Configure(frequency, sampleRate uint32, freqCorrectionPPM int32) error {
	if err := c.sendCommand(cmdSetSampleRate, sampleRate); err != nil {
		return fmt.Errorf("rtltcp: set sample rate: %w", err)
	}
	if err := c.sendCommand(cmdSetFrequency, frequency); err != nil {
		return fmt.Errorf("rtltcp: set frequency: %w", err)
	}
	if err := c.sendCommand(cmdSetFreqCorrection, uint32(freqCorrectionPPM)); err != nil {
		return fmt.Errorf("rtltcp: set freq correction: %w", err)
	}
	return nil
}

// ErrDataTimeout is returned by StartCapture when no data arrives
// within dataTimeout, per spec.md §6's RTL_TCP data-timeout watchdog.
var ErrDataTimeout = errors.New("rtltcp: data timeout")

// StartCapture streams raw I/Q bytes into dataChan until ctx is
// cancelled or dataTimeout elapses with no data, whichever comes
// first. A zero dataTimeout uses the spec default of 2 seconds.
func (c *Client) StartCapture(ctx context.Context, dataChan chan<- []byte, dataTimeout time.Duration) error {
	if dataTimeout <= 0 {
		dataTimeout = defaultDataWait
	}

	go func() {
		<-ctx.Done()
		c.conn.Close()
	}()

	buf := make([]byte, 16*16384)
	for {
		if err := c.conn.SetReadDeadline(time.Now().Add(dataTimeout)); err != nil {
			return fmt.Errorf("rtltcp: set read deadline: %w", err)
		}
		n, err := c.conn.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return ErrDataTimeout
			}
			return fmt.Errorf("rtltcp: read: %w", err)
		}

		chunk := make([]byte, n)
		copy(chunk, buf[:n])
		select {
		case dataChan <- chunk:
		case <-ctx.Done():
			return nil
		}
	}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
