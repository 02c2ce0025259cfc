// Package supervisor wires the PDU simulator's components together: the
// dual PduUnit state store, the Dispatcher, the Network and Serial
// Endpoints, the Hardware Projector (simulator or MCP23017), a free-running
// uptime/heartbeat ticker, and an optional Prometheus metrics listener
// (SPEC_FULL.md §G). Its lifecycle follows the teacher's cancellation
// idiom: everything is torn down by canceling one cancel.Context.
package supervisor

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoAethereal/cancel"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stratos-avionics/pdusim/internal/config"
	"github.com/stratos-avionics/pdusim/internal/dispatch"
	"github.com/stratos-avionics/pdusim/internal/hardware"
	"github.com/stratos-avionics/pdusim/internal/pdu"
	"github.com/stratos-avionics/pdusim/internal/transport"
)

// shutdownGrace bounds how long Run waits for endpoints to stop after
// cancellation before giving up and returning anyway.
const shutdownGrace = 3 * time.Second

// Supervisor owns every long-running component of one simulated PDU pair.
type Supervisor struct {
	Config config.Config
	Log    *log.Logger

	units      *pdu.PduStateManager
	dispatcher *dispatch.Dispatcher
	network    *transport.NetworkEndpoint
	serial     *transport.SerialEndpoint
	projector  *hardware.Projector

	missedHeartbeats prometheus.Gauge
	uptimeTicks      prometheus.Gauge
}

// New builds a Supervisor from cfg. Hardware resources (the MCP23017 I²C
// bus) are opened lazily inside Run, not here, so constructing a
// Supervisor never touches real hardware.
func New(cfg config.Config, logger *log.Logger) *Supervisor {
	if logger == nil {
		logger = log.Default()
	}
	units := pdu.NewPduStateManager()
	d := dispatch.New(units)

	return &Supervisor{
		Config:     cfg,
		Log:        logger,
		units:      units,
		dispatcher: d,
		network:    &transport.NetworkEndpoint{Addr: cfg.NetworkAddr(), Dispatcher: d, Log: logger},
		missedHeartbeats: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pdusim_missed_heartbeats_total",
			Help: "Cumulative missed heartbeat windows across both PDU units.",
		}),
		uptimeTicks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pdusim_uptime_ticks",
			Help: "Uptime ticks (1Hz) of the nominal PDU unit.",
		}),
	}
}

// Run starts every configured component and blocks until ctx is canceled
// or a component fails. A SIGINT/SIGTERM also cancels ctx.
func (s *Supervisor) Run(ctx cancel.Context) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sig:
			s.Log.Info("shutdown signal received")
			ctx.Cancel()
		case <-ctx.Done():
		}
	}()
	defer signal.Stop(sig)

	icd, err := config.LoadICD(s.Config.ICDConfigPath)
	if err != nil {
		return err
	}

	driver, err := s.buildDriver()
	if err != nil {
		return err
	}
	s.projector = &hardware.Projector{Units: s.units, Driver: driver, Coefficients: icd.Coefficients()}

	if s.Config.SerialDevice != "" {
		s.serial = &transport.SerialEndpoint{
			Device:     s.Config.SerialDevice,
			Baud:       s.Config.SerialBaud,
			Unit:       s.units.Unit(pdu.APIDNominal),
			Dispatcher: s.dispatcher,
			Log:        s.Log,
		}
	}

	errs := make(chan error, 4)
	go func() { errs <- s.network.Serve(ctx) }()
	go func() { errs <- s.projector.Run(ctx) }()
	if s.serial != nil {
		go func() { errs <- s.serial.Serve(ctx) }()
	}
	go s.tick(ctx)
	if s.Config.MetricsAddr != "" {
		go s.serveMetrics(ctx)
	}

	running := 2
	if s.serial != nil {
		running++
	}
	done := make(chan error, 1)
	go func() {
		for i := 0; i < running; i++ {
			if err := <-errs; err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}

	select {
	case err := <-done:
		return err
	case <-time.After(shutdownGrace):
		s.Log.Warn("components did not stop within shutdown grace period, returning anyway")
		return nil
	}
}

func (s *Supervisor) buildDriver() (hardware.GPIODriver, error) {
	switch s.Config.Mode {
	case config.ModeEmulator:
		bus, err := openI2CBus()
		if err != nil {
			return nil, err
		}
		return hardware.NewMcp23017Driver(bus)
	default:
		return hardware.NewSimDriver(), nil
	}
}

// tick drives the 1Hz uptime/missed-heartbeat accounting (SPEC_FULL.md
// §Supplemented features) until ctx is canceled.
func (s *Supervisor) tick(ctx cancel.Context) {
	timeout := s.Config.HeartbeatTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			var missed uint32
			for _, unit := range s.units.Units() {
				unit.Tick(now, timeout)
				missed += unit.Snapshot().Heartbeat.MissedCount
			}
			s.missedHeartbeats.Set(float64(missed))
			s.uptimeTicks.Set(float64(s.units.Unit(pdu.APIDNominal).StatusValue().Uptime))
		}
	}
}

func (s *Supervisor) serveMetrics(ctx cancel.Context) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(s.missedHeartbeats, s.uptimeTicks)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: s.Config.MetricsAddr, Handler: mux}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.Log.Error("metrics server failed", "err", err)
	}
}
