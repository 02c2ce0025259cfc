package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != ModeSimulator {
		t.Fatalf("Mode = %v, want simulator", cfg.Mode)
	}
	if cfg.NetworkAddr() == "" || cfg.TCPPort != 4242 || cfg.SerialBaud != 115200 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestParseRejectsUnknownMode(t *testing.T) {
	_, err := Parse([]string{"--mode", "bogus"})
	if err == nil {
		t.Fatal("expected an error for an unknown mode")
	}
}

func TestParseOverridesFlags(t *testing.T) {
	cfg, err := Parse([]string{
		"--mode", "emulator",
		"--tcp-ip", "127.0.0.1",
		"--tcp-port", "5000",
		"--rs422-port", "/dev/ttyUSB0",
		"--metrics-addr", ":9100",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != ModeEmulator || cfg.SerialDevice != "/dev/ttyUSB0" || cfg.MetricsAddr != ":9100" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.NetworkAddr() != "127.0.0.1:5000" {
		t.Fatalf("NetworkAddr() = %q, want 127.0.0.1:5000", cfg.NetworkAddr())
	}
}

func TestLoadICDEmptyPath(t *testing.T) {
	icd, err := LoadICD("")
	if err != nil {
		t.Fatal(err)
	}
	if len(icd.Coefficients()) != 0 {
		t.Fatalf("expected no channels for an empty path, got %d", len(icd.Coefficients()))
	}
}

func TestLoadICDParsesChannels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "icd.yaml")
	contents := "channels:\n  - channel: 0\n    gain: 2.5\n    offset: -10\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	icd, err := LoadICD(path)
	if err != nil {
		t.Fatal(err)
	}
	coeffs := icd.Coefficients()
	c, ok := coeffs[0]
	if !ok {
		t.Fatal("channel 0 missing")
	}
	if c.Gain != 2.5 || c.Offset != -10 {
		t.Fatalf("got %+v", c)
	}
}
