package hardware

import (
	"fmt"
	"io"

	"gobot.io/x/gobot/v2/platforms/adaptors"
	"gobot.io/x/gobot/v2/platforms/raspi"

	"github.com/nerrad567/farmnode/internal/infrastructure/config"
)

// openRaspi connects the Raspberry Pi adaptor and opens the sensor buses.
// Water probe inputs get the internal pull-up, so logic low means water.
func openRaspi(cfg *config.Config) (*Board, error) {
	pullUps := make([]string, 0, len(cfg.Sensors.WaterProbes))
	for _, p := range cfg.Sensors.WaterProbes {
		pullUps = append(pullUps, p.Pin)
	}

	opts := []interface{}{adaptors.WithGpiodAccess()}
	if len(pullUps) > 0 {
		opts = append(opts, adaptors.WithGpiosPullUp(pullUps[0], pullUps[1:]...))
	}

	adaptor := raspi.NewAdaptor(opts...)
	if err := adaptor.Connect(); err != nil {
		return nil, fmt.Errorf("%w: raspi connect: %w", ErrInitFailed, err)
	}

	// Finalize also closes every bus connection the adaptor handed out.
	b := &Board{
		GPIO:    adaptor,
		closers: []io.Closer{closerFunc(adaptor.Finalize)},
	}

	if cfg.Sensors.Light.Enabled {
		conn, err := adaptor.GetI2cConnection(cfg.Sensors.Light.Address, cfg.Sensors.Light.I2CBus)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("%w: i2c bus %d address %#x: %w",
				ErrInitFailed, cfg.Sensors.Light.I2CBus, cfg.Sensors.Light.Address, err)
		}
		b.I2C = conn
	}

	if cfg.Sensors.PH.Enabled {
		ph := cfg.Sensors.PH
		conn, err := adaptor.GetSpiConnection(ph.SPIBus, ph.SPIChip, spiMode, spiBits, ph.SpeedHz)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("%w: spi bus %d chip %d: %w", ErrInitFailed, ph.SPIBus, ph.SPIChip, err)
		}
		b.SPI = conn
	}

	return b, nil
}
