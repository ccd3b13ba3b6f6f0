// Package raw encodes and parses the RAW hex line protocol (spec.md
// §4.8/§6): each message is one line, "*" + uppercase hex + ";", LF
// terminated (an optional trailing CR is tolerated on read).
package raw

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"strings"

	"go1090/internal/adsb"
)

// Heartbeat is the well-known readsb keep-alive line: a RAW line whose
// payload is all zero bits.
const Heartbeat = "*0000;"

const (
	minPayloadHex = 2
	maxPayloadHex = 2 * adsb.MsgLongBytes // 28
)

// Encode serializes a decoded message's raw bytes as a RAW hex line,
// including the trailing newline.
func Encode(msg *adsb.Message) string {
	return "*" + strings.ToUpper(hex.EncodeToString(msg.Bytes)) + ";\n"
}

// Decode parses the payload between "*" and ";" of one RAW line into
// bytes and a downlink format, ready for adsb.Decode. ok is false for
// the heartbeat line or a payload outside the 2..28 hex-digit range.
func Decode(payload string) (data []byte, df uint8, ok bool) {
	if len(payload) < minPayloadHex || len(payload) > maxPayloadHex || len(payload)%2 != 0 {
		return nil, 0, false
	}
	data, err := hex.DecodeString(payload)
	if err != nil {
		return nil, 0, false
	}
	if len(data) == 0 || "*"+payload+";" == Heartbeat {
		return nil, 0, false
	}
	return data, (data[0] >> 3) & 0x1F, true
}

// Scanner reads successive RAW lines from a connection's input stream,
// stripping the "*"/";" framing and silently dropping the heartbeat.
// Grounded on internal/beast.Decoder's accumulate-then-scan buffering
// style, adapted to a line-oriented protocol via bufio.Scanner instead
// of a byte-counted Beast frame.
type Scanner struct {
	scanner *bufio.Scanner

	Good         uint64
	Empty        uint64
	Unrecognized uint64
}

// NewScanner wraps r (typically a net.Conn) for RAW line reading.
func NewScanner(r *bufio.Reader) *Scanner {
	s := bufio.NewScanner(r)
	s.Split(bufio.ScanLines)
	return &Scanner{scanner: s}
}

// Next returns the next decodable RAW payload, skipping heartbeats and
// malformed lines (counted in Empty/Unrecognized). It returns
// ok=false once the underlying stream is exhausted or errors.
func (s *Scanner) Next() (data []byte, df uint8, ok bool) {
	for s.scanner.Scan() {
		line := strings.TrimRight(s.scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if line == Heartbeat {
			s.Good++
			continue
		}
		if !strings.HasPrefix(line, "*") || !strings.HasSuffix(line, ";") {
			s.Unrecognized++
			continue
		}
		payload := line[1 : len(line)-1]
		if payload == "" {
			s.Empty++
			continue
		}
		data, df, ok = Decode(payload)
		if !ok {
			s.Unrecognized++
			continue
		}
		s.Good++
		return data, df, true
	}
	return nil, 0, false
}

// Err returns the first non-EOF error encountered by the scanner.
func (s *Scanner) Err() error {
	if err := s.scanner.Err(); err != nil {
		return fmt.Errorf("raw scanner: %w", err)
	}
	return nil
}
