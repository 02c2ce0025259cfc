package supervisor

import (
	"fmt"

	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"
)

// openI2CBus initializes the periph.io host drivers and opens the default
// I²C bus the six MCP23017 expanders are wired to (spec §6).
func openI2CBus() (i2c.Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("supervisor: initializing periph host: %w", err)
	}
	bus, err := i2creg.Open("")
	if err != nil {
		return nil, fmt.Errorf("supervisor: opening i2c bus: %w", err)
	}
	return bus, nil
}
