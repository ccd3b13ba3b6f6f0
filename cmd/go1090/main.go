package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go1090/internal/app"
)

func main() {
	var config app.Config
	var denyList []string

	rootCmd := &cobra.Command{
		Use:   "go1090",
		Short: "ADS-B Decoder (dump1090-style)",
		Long: `ADS-B Decoder using RTL-SDR (dump1090-style implementation).

Captures I/Q samples from RTL-SDR (or a remote rtl_tcp server) at 2.4MHz,
demodulates ADS-B messages by detecting the Mode S preamble and slicing bits
(retrying once with phase correction when CRC fails), validates CRC, tracks aircraft in a
registry, and fans decoded messages out over RAW, BaseStation (SBS) and HTTP
JSON network services.

Example usage:
  go1090 --frequency 1090000000 --sample-rate 2400000 --gain 40 --device 0
  go1090 --rtltcp 192.168.1.50:1234 --http :8080 --raw-out :30002`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.ShowVersion {
				app.ShowVersion()
				return nil
			}

			config.DenyCIDRs = denyList
			application := app.NewApplication(config)
			return application.Start()
		},
	}

	flags := rootCmd.Flags()
	flags.Uint32VarP(&config.Frequency, "frequency", "f", app.DefaultFrequency, "Frequency to tune to (Hz)")
	flags.Uint32VarP(&config.SampleRate, "sample-rate", "s", app.DefaultSampleRate, "Sample rate (Hz)")
	flags.IntVarP(&config.Gain, "gain", "g", app.DefaultGain, "Gain setting (0 for auto)")
	flags.IntVarP(&config.DeviceIndex, "device", "d", 0, "RTL-SDR device index")
	flags.StringVar(&config.RTLTCPAddr, "rtltcp", "", "Connect to a remote rtl_tcp server instead of a local device (host:port)")

	flags.StringVarP(&config.LogDir, "log-dir", "l", "./logs", "Log directory")
	flags.BoolVarP(&config.LogRotateUTC, "utc", "u", true, "Use UTC for log rotation")
	flags.BoolVarP(&config.Verbose, "verbose", "v", false, "Verbose logging")
	flags.BoolVar(&config.ShowVersion, "version", false, "Show version information")

	flags.StringVar(&config.RawInAddr, "raw-in", "", "RAW_IN listen address (host:port), empty disables")
	flags.StringVar(&config.RawOutAddr, "raw-out", "", "RAW_OUT listen address (host:port), empty disables")
	flags.StringVar(&config.SBSInAddr, "sbs-in", "", "SBS_IN listen address (host:port), empty disables")
	flags.StringVar(&config.SBSOutAddr, "sbs-out", "", "SBS_OUT listen address (host:port), empty disables")
	flags.StringVar(&config.HTTPAddr, "http", "", "HTTP JSON listen address (host:port), empty disables")

	flags.Float64Var(&config.HomeLat, "home-lat", 0, "Home position latitude, for distance and receiver.json")
	flags.Float64Var(&config.HomeLon, "home-lon", 0, "Home position longitude, for distance and receiver.json")
	flags.BoolVar(&config.HasHome, "has-home", false, "Enable home-position distance calculations")

	flags.StringSliceVar(&denyList, "deny", nil, "CIDR or IP to reject on every network service (repeatable)")
	flags.StringVar(&config.MetadataDBPath, "metadata-db", "", "Path to a read-only SQLite static aircraft/airport database")

	flags.DurationVar(&config.AircraftTTL, "aircraft-ttl", app.DefaultAircraftTTL, "Aircraft eviction TTL")
	flags.DurationVar(&config.ICAOCacheTTL, "icao-cache-ttl", app.DefaultICAOCacheTTL, "ICAO address cache TTL")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
