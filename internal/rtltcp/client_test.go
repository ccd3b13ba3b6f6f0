package rtltcp

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// welcomeFrame builds the 12-byte "RTL0" handshake spec.md's test
// scenario 5 specifies: magic, big-endian tuner type, big-endian gain
// count.
func welcomeFrame(tuner TunerType, gainCount uint32) []byte {
	buf := make([]byte, welcomeSize)
	copy(buf[:4], welcomeMagic)
	binary.BigEndian.PutUint32(buf[4:8], uint32(tuner))
	binary.BigEndian.PutUint32(buf[8:12], gainCount)
	return buf
}

func TestDialParsesWelcomeAndGainTable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write(welcomeFrame(TunerR820T, 29))
		// Drain whatever startup commands arrive so Configure doesn't
		// block on a full TCP send buffer during the test.
		io.Copy(io.Discard, conn)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := Dial(ctx, ln.Addr().String(), discardLogger())
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, TunerR820T, c.Welcome.TunerType)
	assert.Equal(t, uint32(29), c.Welcome.GainCount)
	assert.Len(t, c.Gains, 29)
}

func TestDialRejectsBadMagic(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		bad := welcomeFrame(TunerR820T, 29)
		bad[0] = 'X'
		conn.Write(bad)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = Dial(ctx, ln.Addr().String(), discardLogger())
	assert.Error(t, err)
}

func TestConfigureSendsThreeCommands(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write(welcomeFrame(TunerR820T, 29))

		buf := make([]byte, 15)
		n, _ := io.ReadFull(conn, buf)
		received <- buf[:n]
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := Dial(ctx, ln.Addr().String(), discardLogger())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Configure(1090000000, 2400000, 0))

	select {
	case buf := <-received:
		require.Len(t, buf, 15)
		assert.Equal(t, cmdSetSampleRate, buf[0])
		assert.Equal(t, uint32(2400000), binary.BigEndian.Uint32(buf[1:5]))
		assert.Equal(t, cmdSetFrequency, buf[5])
		assert.Equal(t, uint32(1090000000), binary.BigEndian.Uint32(buf[6:10]))
		assert.Equal(t, cmdSetFreqCorrection, buf[10])
		assert.Equal(t, uint32(0), binary.BigEndian.Uint32(buf[11:15]))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for commands")
	}
}

func TestStartCaptureDeliversData(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write(welcomeFrame(TunerR820T, 29))
		conn.Write([]byte{1, 2, 3, 4})
		time.Sleep(3 * time.Second)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, ln.Addr().String(), discardLogger())
	require.NoError(t, err)
	defer c.Close()

	dataChan := make(chan []byte, 1)
	captureCtx, captureCancel := context.WithCancel(context.Background())
	defer captureCancel()

	go c.StartCapture(captureCtx, dataChan, 0)

	select {
	case chunk := <-dataChan:
		assert.Equal(t, []byte{1, 2, 3, 4}, chunk)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for data")
	}
}

func TestStartCaptureReturnsDataTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write(welcomeFrame(TunerR820T, 29))
		time.Sleep(2 * time.Second)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	c, err := Dial(ctx, ln.Addr().String(), discardLogger())
	require.NoError(t, err)
	defer c.Close()

	dataChan := make(chan []byte, 1)
	err = c.StartCapture(context.Background(), dataChan, 200*time.Millisecond)
	assert.ErrorIs(t, err, ErrDataTimeout)
}

func TestGainTableUnknownTunerReturnsNil(t *testing.T) {
	assert.Nil(t, GainTable(TunerE4000))
}
