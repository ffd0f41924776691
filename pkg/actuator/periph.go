package actuator

import (
	"fmt"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphDriver drives a real GPIO pin through periph.io.
type PeriphDriver struct {
	pin    gpio.PinIO
	logger zerolog.Logger
}

// NewPeriphDriver initialises the periph.io host and resolves the pin by
// name (e.g. "GPIO17"). Failing to resolve the pin is fatal at startup.
func NewPeriphDriver(pinName string, logger zerolog.Logger) (*PeriphDriver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("gpio pin %q not found in hardware", pinName)
	}
	return &PeriphDriver{
		pin:    pin,
		logger: logger.With().Str("component", "PeriphDriver").Str("pin", pinName).Logger(),
	}, nil
}

// Set drives the pin high or low. A hardware write failure is logged, not
// returned: the actuation layer treats the write as infallible.
func (d *PeriphDriver) Set(on bool) {
	level := gpio.Low
	if on {
		level = gpio.High
	}
	if err := d.pin.Out(level); err != nil {
		d.logger.Error().Err(err).Bool("on", on).Msg("Failed to drive GPIO pin.")
	}
}
