// Package config loads the Supervisor's runtime configuration: CLI flags
// (github.com/spf13/pflag) layered over an optional ICD YAML file
// (gopkg.in/yaml.v3) that carries the per-channel affine coefficients this
// rewrite resolves Open Question Q1 with (SPEC_FULL.md).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/stratos-avionics/pdusim/internal/pdu"
)

// Mode selects whether the Supervisor drives real MCP23017 hardware or the
// in-memory simulator (spec §6).
type Mode string

const (
	ModeSimulator Mode = "simulator"
	ModeEmulator  Mode = "emulator"
)

// ChannelCoefficient names one measurement channel's affine calibration in
// the YAML ICD file. Channel indexes 0..LineCount-1 address per-line
// channels; LineCount and LineCount+1 address the bus voltage/current
// aggregates (spec §3, §4.6).
type ChannelCoefficient struct {
	Channel int     `yaml:"channel"`
	Gain    float64 `yaml:"gain"`
	Offset  int32   `yaml:"offset"`
}

// ICD is the loadable Interface Control Document. It carries only the
// per-channel calibration; the Message ID table is fixed in
// internal/codec/message.go and is not loaded from the file. Both are
// placeholders per Open Question Q1 (see SPEC_FULL.md, DESIGN.md).
type ICD struct {
	Channels []ChannelCoefficient `yaml:"channels"`
}

// Coefficients converts the YAML list into the lookup map Projector wants.
func (icd ICD) Coefficients() map[int]pdu.AffineCoefficient {
	out := make(map[int]pdu.AffineCoefficient, len(icd.Channels))
	for _, c := range icd.Channels {
		out[c.Channel] = pdu.AffineCoefficient{Gain: c.Gain, Offset: c.Offset}
	}
	return out
}

// LoadICD reads and parses an ICD YAML file. An empty path is not an
// error: it yields the zero ICD, and the Projector falls back to identity
// coefficients (gain 1, offset 0) per channel.
func LoadICD(path string) (ICD, error) {
	var icd ICD
	if path == "" {
		return icd, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ICD{}, fmt.Errorf("config: reading icd file: %w", err)
	}
	if err := yaml.Unmarshal(data, &icd); err != nil {
		return ICD{}, fmt.Errorf("config: parsing icd file: %w", err)
	}
	return icd, nil
}

// Config holds every flag the Supervisor accepts (spec §6's literal
// `--mode {simulator|emulator}`, `--tcp-ip`, `--tcp-port`, `--rs422-port`,
// `--rs422-baud`, plus the ambient --metrics-addr/--icd-config additions of
// SPEC_FULL.md §G).
type Config struct {
	Mode             Mode
	TCPIP            string
	TCPPort          int
	SerialDevice     string
	SerialBaud       int
	MetricsAddr      string
	ICDConfigPath    string
	HeartbeatTimeout time.Duration
}

// NetworkAddr is the net.ListenPacket address derived from TCPIP/TCPPort
// for the Network Endpoint (spec §4.1's datagram transport listens on this
// host:port pair despite the flag names' "tcp" prefix, which the ICD
// inherits unchanged from spec §6).
func (c Config) NetworkAddr() string {
	return fmt.Sprintf("%s:%d", c.TCPIP, c.TCPPort)
}

// Parse builds a Config from args (typically os.Args[1:]), returning
// pflag.ErrHelp unmodified when -h/--help is requested.
func Parse(args []string) (Config, error) {
	fs := pflag.NewFlagSet("pdusim", pflag.ContinueOnError)

	mode := fs.String("mode", string(ModeSimulator), "operating mode: simulator or emulator")
	tcpIP := fs.String("tcp-ip", "", "network address the Network Endpoint listens on")
	tcpPort := fs.Int("tcp-port", 4242, "network port the Network Endpoint listens on")
	serialDevice := fs.String("rs422-port", "", "RS422 serial device path (empty disables the Serial Endpoint)")
	serialBaud := fs.Int("rs422-baud", 115200, "RS422 serial baud rate")
	metricsAddr := fs.String("metrics-addr", "", "Prometheus metrics listen address (empty disables metrics)")
	icdConfig := fs.String("icd-config", "", "path to the ICD YAML file providing channel calibration")
	heartbeatTimeout := fs.Duration("heartbeat-timeout", 5*time.Second, "missed-heartbeat detection window")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Mode:             Mode(*mode),
		TCPIP:            *tcpIP,
		TCPPort:          *tcpPort,
		SerialDevice:     *serialDevice,
		SerialBaud:       *serialBaud,
		MetricsAddr:      *metricsAddr,
		ICDConfigPath:    *icdConfig,
		HeartbeatTimeout: *heartbeatTimeout,
	}
	if cfg.Mode != ModeSimulator && cfg.Mode != ModeEmulator {
		return Config{}, fmt.Errorf("config: invalid --mode %q, want %q or %q", *mode, ModeSimulator, ModeEmulator)
	}
	return cfg, nil
}
