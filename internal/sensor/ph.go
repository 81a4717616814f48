package sensor

import (
	"context"
	"fmt"
)

// pH range after clamping.
const (
	minPH = 0.0
	maxPH = 14.0
)

// defaultBits is the MCP3008 resolution, used when PHConfig.Bits is unset
// or wider than the 16-bit result window.
const defaultBits = 10

// SPIConn is a full-duplex SPI transaction.
// gobot's spi.Connection satisfies it.
type SPIConn interface {
	ReadCommandData(command []byte, data []byte) error
}

// PHConfig holds the ADC and calibration parameters for a pH probe.
type PHConfig struct {
	Channel int
	VRef    float64
	Bits    int
	// pH = Slope * volts + Offset
	Slope  float64
	Offset float64
}

// PHSensor reads a pH probe through one single-ended channel of an
// MCP3008-style ADC.
type PHSensor struct {
	conn   SPIConn
	cfg    PHConfig
	logger Logger
}

// NewPHSensor creates a pH sensor over an open SPI connection.
func NewPHSensor(conn SPIConn, cfg PHConfig, logger Logger) *PHSensor {
	if cfg.Bits < 1 || cfg.Bits > 16 {
		cfg.Bits = defaultBits
	}
	return &PHSensor{conn: conn, cfg: cfg, logger: orNoop(logger)}
}

// Name implements Sensor.
func (s *PHSensor) Name() string { return "ph" }

// Read converts one ADC sample to pH, clamped to [0,14].
func (s *PHSensor) Read(_ context.Context) Reading {
	raw, err := s.readRaw()
	if err != nil {
		s.logger.Warn("pH read failed", "channel", s.cfg.Channel, "error", err)
		return Fail()
	}
	return Ok(s.convert(raw))
}

// readRaw performs the 3-byte MCP3008 exchange: start bit, single-ended mode
// plus channel, then clocks out the result. The code is masked to Bits so
// the raw value and convert's full scale always agree.
func (s *PHSensor) readRaw() (int, error) {
	// #nosec G115 -- channel validated to 0..7 by config
	tx := []byte{0x01, byte(0x08|s.cfg.Channel) << 4, 0x00}
	rx := make([]byte, len(tx))

	if err := s.conn.ReadCommandData(tx, rx); err != nil {
		return 0, fmt.Errorf("%w: spi: %w", ErrBusRead, err)
	}

	mask := 1<<s.cfg.Bits - 1
	return (int(rx[1])<<8 | int(rx[2])) & mask, nil
}

// convert maps a raw code to volts and then to clamped pH.
func (s *PHSensor) convert(raw int) float64 {
	fullScale := float64(int(1)<<s.cfg.Bits - 1)
	volts := float64(raw) * s.cfg.VRef / fullScale
	return clamp(s.cfg.Slope*volts+s.cfg.Offset, minPH, maxPH)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
