package network

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"go1090/internal/adsb"
	"go1090/internal/basestation"
	"go1090/internal/icaocache"
	"go1090/internal/raw"
	"go1090/internal/registry"
)

// HousekeepingInterval is the reactor's periodic tick (spec.md §4.8/§5):
// stale-aircraft eviction and estimate propagation.
const HousekeepingInterval = 125 * time.Millisecond

// Reactor owns the RAW/SBS listening services and the bookkeeping
// (deny list, unique source addresses) every accepted connection
// passes through. Generalized from the teacher's single
// goroutine-per-pipeline-stage idiom in internal/app/application.go
// (dataChan/ctx/wg) to one goroutine per listening service; each
// service's own connection set is guarded by its own mutex rather than
// a single-threaded select loop (per spec.md §9 DESIGN NOTES, the same
// hash-map-plus-mutex resolution chosen for internal/registry).
type Reactor struct {
	logger *logrus.Logger

	Registry *registry.Registry
	ICAO     *icaocache.Cache
	BaseOut  *basestation.Writer

	DecodeOpts adsb.DecoderOptions

	DenyList  *DenyList
	UniqueIPs *UniqueIPSet

	services map[Tag]*Service
}

// New builds a Reactor wired to the given registry, ICAO cache, and
// BaseStation writer; opts gates CRC correction for RAW_IN decodes.
func New(reg *registry.Registry, cache *icaocache.Cache, baseOut *basestation.Writer, opts adsb.DecoderOptions, logger *logrus.Logger) *Reactor {
	return &Reactor{
		logger:     logger,
		Registry:   reg,
		ICAO:       cache,
		BaseOut:    baseOut,
		DecodeOpts: opts,
		DenyList:   NewDenyList(),
		UniqueIPs:  NewUniqueIPSet(),
		services:   make(map[Tag]*Service),
	}
}

// Service returns the descriptor for tag, if a listener has been
// started for it.
func (r *Reactor) Service(tag Tag) (*Service, bool) {
	s, ok := r.services[tag]
	return s, ok
}

// OnDecoded is the single re-entry point spec.md §2 describes for
// decoded messages from the local SDR and from RAW_IN (SBS_IN rows are
// relayed straight to SBS_OUT and never reach it): it updates the
// registry and fans the message out to every connected RAW_OUT/SBS_OUT
// client.
func (r *Reactor) OnDecoded(msg *adsb.Message) {
	if !msg.CRCOK {
		return
	}
	r.ICAO.Insert(msg.ICAO())
	r.Registry.OnMessage(msg, msg.Timestamp)

	if s, ok := r.services[RawOut]; ok {
		s.Broadcast([]byte(raw.Encode(msg)))
	}
	if s, ok := r.services[SBSOut]; ok && r.BaseOut != nil {
		if line := r.BaseOut.FormatLine(msg); line != "" {
			s.Broadcast([]byte(line + "\n"))
		}
	}
}

// ListenRawIn starts the RAW_IN service: each accepted connection is
// scanned for RAW hex lines, decoded, and fed into OnDecoded.
func (r *Reactor) ListenRawIn(ctx context.Context, addr string) error {
	return r.listenLines(ctx, RawIn, addr, func(conn net.Conn) {
		s := raw.NewScanner(bufio.NewReader(conn))
		for {
			data, df, ok := s.Next()
			if !ok {
				return
			}
			msg := adsb.Decode(data, df, r.DecodeOpts, time.Now())
			if msg != nil {
				r.OnDecoded(msg)
			}
		}
	})
}

// ListenRawOut starts the RAW_OUT broadcast service: accepted clients
// are registered as broadcast targets and otherwise read nothing.
func (r *Reactor) ListenRawOut(ctx context.Context, addr string) error {
	return r.listenBroadcastOnly(ctx, RawOut, addr)
}

// ListenSBSIn starts the SBS_IN service: incoming BaseStation CSV rows
// are parsed and relayed to SBS_OUT clients. A parsed row carries no
// raw bits to re-run through the decoder, so (unlike RAW_IN) it never
// reaches OnDecoded/the registry — it is pure relay, per
// internal/basestation.ParseLine's doc comment.
func (r *Reactor) ListenSBSIn(ctx context.Context, addr string) error {
	return r.listenLines(ctx, SBSIn, addr, func(conn net.Conn) {
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			line := scanner.Text()
			parsed, err := basestation.ParseLine(line)
			if err != nil || parsed.MessageType != basestation.MSG {
				continue
			}
			if s, ok := r.services[SBSOut]; ok {
				s.Broadcast([]byte(line + "\n"))
			}
		}
	})
}

// ListenSBSOut starts the SBS_OUT broadcast service.
func (r *Reactor) ListenSBSOut(ctx context.Context, addr string) error {
	return r.listenBroadcastOnly(ctx, SBSOut, addr)
}

// listenBroadcastOnly registers a listening service whose accepted
// connections are only ever written to, never read.
func (r *Reactor) listenBroadcastOnly(ctx context.Context, tag Tag, addr string) error {
	return r.listenLines(ctx, tag, addr, func(conn net.Conn) {
		// Broadcast-only: block until the peer disconnects so accept
		// bookkeeping (Accepts/Rejects, unique-IP tracking) stays
		// accurate without a read loop driving it.
		buf := make([]byte, 1)
		for {
			if _, err := conn.Read(buf); err != nil {
				return
			}
		}
	})
}

// listenLines opens a TCP listener for tag and runs handle(conn) in
// its own goroutine per accepted connection, after deny-list and
// unique-IP bookkeeping (spec.md §4.8 "Connection lifecycle").
func (r *Reactor) listenLines(ctx context.Context, tag Tag, addr string, handle func(net.Conn)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%s listen on %s: %w", tag, addr, err)
	}

	svc := NewService(tag, "tcp", addr, true, tag == RawOut || tag == SBSOut)
	r.services[tag] = svc

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				r.logger.WithError(err).WithField("service", tag.String()).Warn("accept failed")
				continue
			}
			r.acceptConn(ctx, svc, conn, handle)
		}
	}()

	r.logger.WithFields(logrus.Fields{"service": tag.String(), "addr": addr}).Info("network service listening")
	return nil
}

func (r *Reactor) acceptConn(ctx context.Context, svc *Service, conn net.Conn, handle func(net.Conn)) {
	host, _, _ := net.SplitHostPort(conn.RemoteAddr().String())
	ip := net.ParseIP(host)

	now := time.Now()
	if ip != nil && r.DenyList.Denied(ip) {
		svc.Rejects++
		r.UniqueIPs.Deny(host, svc.Tag, now)
		conn.Close()
		return
	}
	if ip != nil {
		r.UniqueIPs.Accept(host, svc.Tag, now)
	}

	c := &Connection{conn: conn, service: svc, remote: ip}
	svc.addConn(c)

	go func() {
		defer c.Close()
		handle(conn)
	}()
}

// RunHousekeeping drives the 125ms eviction/estimate-propagation tick
// until ctx is cancelled; call it from its own goroutine.
func (r *Reactor) RunHousekeeping(ctx context.Context) {
	ticker := time.NewTicker(HousekeepingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			r.Registry.EvictStale(now)
			r.Registry.PropagateEstimates(now)
		}
	}
}
