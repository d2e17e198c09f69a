// Package light controls the status LED on a Raspberry Pi GPIO pin. The
// indicator is strictly on/off; there is no intensity control.
package light

import (
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"

	"veer/pkg/logx"
)

// Indicator is the binary output the router toggles. A disabled
// indicator accepts commands and does nothing, so the assistant can run
// off-device.
type Indicator struct {
	log logx.Logger

	mu      sync.Mutex
	pin     rpio.Pin
	enabled bool
	on      bool
}

// New opens the GPIO memory range and claims the pin as an output. With
// enabled false no hardware is touched.
func New(pin int, enabled bool, log logx.Logger) (*Indicator, error) {
	ind := &Indicator{log: log, enabled: enabled}
	if !enabled {
		log.Info("light indicator disabled")
		return ind, nil
	}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}
	ind.pin = rpio.Pin(pin)
	ind.pin.Output()
	ind.pin.Low()
	log.Info("light indicator ready", logx.Int("pin", pin))
	return ind, nil
}

// Set drives the pin high or low.
func (i *Indicator) Set(on bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.on = on
	if !i.enabled {
		return
	}
	if on {
		i.pin.High()
	} else {
		i.pin.Low()
	}
	i.log.Debug("light switched", logx.Bool("on", on))
}

// On reports the last commanded state.
func (i *Indicator) On() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.on
}

// Close turns the pin off and releases the GPIO mapping.
func (i *Indicator) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.enabled {
		return nil
	}
	i.pin.Low()
	i.enabled = false
	return rpio.Close()
}
