package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"go1090/internal/adsb"
	"go1090/internal/basestation"
	"go1090/internal/httpapi"
	"go1090/internal/icaocache"
	"go1090/internal/logging"
	"go1090/internal/metadata"
	"go1090/internal/network"
	"go1090/internal/registry"
	"go1090/internal/rtlsdr"
	"go1090/internal/rtltcp"
)

// sampler is the I/Q source interface both a local RTL-SDR device and
// a remote RTL_TCP client satisfy (spec.md §5's "sampler interface").
type sampler interface {
	StartCapture(ctx context.Context, dataChan chan<- []byte) error
	Close() error
}

// rtltcpSampler adapts *rtltcp.Client's timeout-taking StartCapture to
// the sampler interface's fixed signature.
type rtltcpSampler struct {
	client      *rtltcp.Client
	dataTimeout time.Duration
}

func (s *rtltcpSampler) StartCapture(ctx context.Context, dataChan chan<- []byte) error {
	err := s.client.StartCapture(ctx, dataChan, s.dataTimeout)
	if err == rtltcp.ErrDataTimeout {
		return fmt.Errorf("rtl_tcp data timeout: %w", err)
	}
	return err
}

func (s *rtltcpSampler) Close() error {
	return s.client.Close()
}

// Application wires the sampler, demodulator/decoder pipeline, the
// aircraft registry, and the network manager's listeners together.
type Application struct {
	config Config
	logger *logrus.Logger

	sampler     sampler
	demodulator *adsb.Demodulator

	registry       *registry.Registry
	icaoCache      *icaocache.Cache
	logRotator     *logging.LogRotator
	baseStation    *basestation.Writer
	metadataStore  *metadata.Store
	reactor        *network.Reactor
	httpServer     *httpapi.Server
	httpListener   *http.Server

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	verbose bool
}

// NewApplication creates a new application instance
func NewApplication(config Config) *Application {
	ctx, cancel := context.WithCancel(context.Background())

	logger := logrus.New()
	if config.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Application{
		config:  config,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		verbose: config.Verbose,
	}
}

// Start starts the application
func (app *Application) Start() error {
	app.logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	}).Info("Starting ADS-B Decoder (dump1090-style)")

	if err := app.initializeComponents(); err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.run(); err != nil {
		app.logger.WithError(err).Error("Application error")
		return err
	}

	select {
	case <-sigChan:
		app.logger.Info("Received shutdown signal")
		app.shutdown()
		return nil
	case <-app.ctx.Done():
		app.shutdown()
		return fmt.Errorf("sampler capture stopped")
	}
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	if err := app.wireCore(); err != nil {
		return err
	}
	if err := app.initializeSampler(); err != nil {
		return fmt.Errorf("failed to initialize sampler: %w", err)
	}
	return nil
}

// wireCore builds every component except the sampler: log rotator,
// BaseStation writer, ICAO cache, aircraft registry, optional metadata
// store, network reactor, and optional HTTP server. Split out from
// initializeComponents so it can be exercised without real RTL-SDR
// hardware or network access.
func (app *Application) wireCore() error {
	cfg := app.config

	var err error
	app.logRotator, err = logging.NewLogRotator(cfg.LogDir, cfg.LogRotateUTC, app.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize log rotator: %w", err)
	}

	app.baseStation = basestation.NewWriter(app.logRotator, app.logger)

	app.icaoCache = icaocache.New(cfg.ICAOCacheTTL)

	app.registry = registry.New(cfg.AircraftTTL, cfg.HomeLat, cfg.HomeLon, cfg.HasHome)
	app.baseStation.SetPositionLookup(app.lookupPosition)

	if cfg.MetadataDBPath != "" {
		store, err := metadata.Open(cfg.MetadataDBPath)
		if err != nil {
			return fmt.Errorf("failed to open metadata database: %w", err)
		}
		app.metadataStore = store
		app.registry.SetLookup(store)
	}

	decodeOpts := adsb.DecoderOptions{
		TwoBitCorrection: true,
		ICAOKnown:        app.icaoCache.Contains,
	}
	app.demodulator = adsb.NewDemodulator(decodeOpts)

	app.reactor = network.New(app.registry, app.icaoCache, app.baseStation, decodeOpts, app.logger)
	for _, cidr := range cfg.DenyCIDRs {
		if err := app.reactor.DenyList.Add(cidr); err != nil {
			return fmt.Errorf("invalid deny-list entry %q: %w", cidr, err)
		}
	}

	if cfg.HTTPAddr != "" {
		app.httpServer = httpapi.NewServer(app.registry, DefaultHTTPVersion, cfg.HomeLat, cfg.HomeLon, cfg.HasHome)
	}

	return nil
}

// initializeSampler picks between a local RTL-SDR dongle and a remote
// RTL_TCP server, per spec.md §5's sampler interface.
func (app *Application) initializeSampler() error {
	cfg := app.config

	if cfg.RTLTCPAddr != "" {
		client, err := rtltcp.Dial(app.ctx, cfg.RTLTCPAddr, app.logger)
		if err != nil {
			return fmt.Errorf("failed to connect to rtl_tcp server: %w", err)
		}
		if err := client.Configure(cfg.Frequency, cfg.SampleRate, 0); err != nil {
			client.Close()
			return fmt.Errorf("failed to configure rtl_tcp server: %w", err)
		}
		app.sampler = &rtltcpSampler{client: client, dataTimeout: DefaultDataTimeout}
		return nil
	}

	device, err := rtlsdr.NewRTLSDRDevice(cfg.DeviceIndex)
	if err != nil {
		return fmt.Errorf("failed to initialize RTL-SDR: %w", err)
	}
	if err := device.Configure(cfg.Frequency, cfg.SampleRate, cfg.Gain); err != nil {
		return fmt.Errorf("failed to configure RTL-SDR: %w", err)
	}
	app.sampler = device
	return nil
}

// lookupPosition resolves an ICAO address's best-known position for
// basestation.Writer's position fields, preferring a CPR-paired fix
// over a propagated estimate.
func (app *Application) lookupPosition(addr uint32) (float64, float64, bool) {
	a, ok := app.registry.Get(addr)
	if !ok {
		return 0, 0, false
	}
	if a.Position != nil {
		return a.Position.Latitude, a.Position.Longitude, true
	}
	if a.EstPosition != nil {
		return a.EstPosition.Latitude, a.EstPosition.Longitude, true
	}
	return 0, 0, false
}

// run runs the main application loop
func (app *Application) run() error {
	app.logger.Info("Starting sampler capture and ADS-B demodulation")

	dataChan := make(chan []byte, 100)

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		if err := app.sampler.StartCapture(app.ctx, dataChan); err != nil {
			app.logger.WithError(err).Error("Sampler capture failed")
			app.cancel()
		}
	}()

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.logRotator.Start(app.ctx)
	}()

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.processIQData(dataChan)
	}()

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.reactor.RunHousekeeping(app.ctx)
	}()

	if err := app.startNetworkListeners(); err != nil {
		return fmt.Errorf("failed to start network listeners: %w", err)
	}

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.reportStatistics()
	}()

	app.logger.Info("All components started successfully")
	return nil
}

// startNetworkListeners starts every configured network manager
// service (spec.md §4.8); an empty address leaves a service disabled.
func (app *Application) startNetworkListeners() error {
	cfg := app.config

	listeners := []struct {
		addr   string
		listen func(ctx context.Context, addr string) error
	}{
		{cfg.RawInAddr, app.reactor.ListenRawIn},
		{cfg.RawOutAddr, app.reactor.ListenRawOut},
		{cfg.SBSInAddr, app.reactor.ListenSBSIn},
		{cfg.SBSOutAddr, app.reactor.ListenSBSOut},
	}
	for _, l := range listeners {
		if l.addr == "" {
			continue
		}
		if err := l.listen(app.ctx, l.addr); err != nil {
			return err
		}
	}

	if cfg.HTTPAddr != "" && app.httpServer != nil {
		app.httpListener = &http.Server{Addr: cfg.HTTPAddr, Handler: app.httpServer}
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			app.logger.WithField("addr", cfg.HTTPAddr).Info("HTTP service listening")
			if err := app.httpListener.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				app.logger.WithError(err).Error("HTTP service failed")
			}
		}()
	}

	return nil
}

// processIQData processes incoming I/Q data from the sampler
func (app *Application) processIQData(dataChan <-chan []byte) {
	sampleCount := 0
	dataPackets := 0
	var carry []uint16

	for {
		select {
		case <-app.ctx.Done():
			app.logger.Info("I/Q data processing stopped")
			return
		case data := <-dataChan:
			if data == nil {
				continue
			}

			dataPackets++
			sampleCount += len(data) / 2

			if dataPackets%100 == 0 {
				app.logger.WithFields(logrus.Fields{
					"packets":   dataPackets,
					"samples":   sampleCount,
					"data_size": len(data),
				}).Debug("I/Q data stats")
			}

			magnitude := append(carry, adsb.ComputeMagnitude(data)...)
			messages := app.demodulator.Demodulate(magnitude, time.Now())
			for _, msg := range messages {
				app.reactor.OnDecoded(msg)
				if app.httpServer != nil {
					app.httpServer.CountMessage()
				}
			}

			// Demodulate leaves the last 2*MsgLongBits samples unscanned;
			// they lead the next buffer so boundary frames decode once.
			if tail := 2 * adsb.MsgLongBits; len(magnitude) > tail {
				carry = append([]uint16(nil), magnitude[len(magnitude)-tail:]...)
			} else {
				carry = magnitude
			}
		}
	}
}

// reportStatistics reports processing statistics periodically
func (app *Application) reportStatistics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			stats := app.demodulator.Stats()
			rate := 0.0
			if stats.Preambles > 0 {
				rate = float64(stats.GoodCRC) / float64(stats.Preambles) * 100
			}
			app.logger.WithFields(logrus.Fields{
				"preambles_found":    stats.Preambles,
				"demodulated":        stats.Demodulated,
				"good_crc":           stats.GoodCRC,
				"bad_crc":            stats.BadCRC,
				"fixed_single_bit":   stats.FixedSingle,
				"fixed_two_bit":      stats.FixedDouble,
				"out_of_phase_fixed": stats.OutOfPhase,
				"success_rate":       fmt.Sprintf("%.2f%%", rate),
				"tracked_aircraft":   app.registry.Len(),
			}).Info("ADS-B processing statistics")
		}
	}
}

// shutdown gracefully shuts down the application
func (app *Application) shutdown() {
	app.logger.Info("Shutting down application")
	app.cancel()

	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		app.logger.Info("All goroutines finished")
	case <-time.After(5 * time.Second):
		app.logger.Warn("Shutdown timeout, forcing exit")
	}

	if app.httpListener != nil {
		app.httpListener.Close()
	}
	if app.sampler != nil {
		app.sampler.Close()
	}
	if app.metadataStore != nil {
		app.metadataStore.Close()
	}
	if app.logRotator != nil {
		app.logRotator.Close()
	}

	app.logger.Info("Shutdown completed")
}
