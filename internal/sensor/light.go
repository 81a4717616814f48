package sensor

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"
)

// BH1750 one-time high-resolution measurement; the device powers down after.
const bh1750OneTimeHighRes = 0x10

// maxSettle is the BH1750 worst-case conversion time in high-res mode.
const maxSettle = 180 * time.Millisecond

// I2CConn is an I2C device handle at a fixed address.
// gobot's i2c.Connection satisfies it.
type I2CConn interface {
	WriteByte(val byte) error
	Read(b []byte) (int, error)
}

// LightSensor reads illuminance from a BH1750.
type LightSensor struct {
	conn    I2CConn
	divisor float64
	settle  time.Duration
	logger  Logger

	// sleep waits for the conversion; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLightSensor creates a BH1750 reader. settle is capped at 180ms.
func NewLightSensor(conn I2CConn, divisor float64, settle time.Duration, logger Logger) *LightSensor {
	if settle > maxSettle || settle < 0 {
		settle = maxSettle
	}
	return &LightSensor{
		conn:    conn,
		divisor: divisor,
		settle:  settle,
		logger:  orNoop(logger),
		sleep:   sleepCtx,
	}
}

// Name implements Sensor.
func (s *LightSensor) Name() string { return "light" }

// Read starts a measurement, waits for the conversion and returns lux.
func (s *LightSensor) Read(ctx context.Context) Reading {
	lux, err := s.measure(ctx)
	if err != nil {
		s.logger.Warn("light read failed", "error", err)
		return Fail()
	}
	return Ok(lux)
}

func (s *LightSensor) measure(ctx context.Context) (float64, error) {
	if err := s.conn.WriteByte(bh1750OneTimeHighRes); err != nil {
		return 0, fmt.Errorf("%w: i2c start: %w", ErrBusRead, err)
	}

	if err := s.sleep(ctx, s.settle); err != nil {
		return 0, err
	}

	buf := make([]byte, 2)
	n, err := s.conn.Read(buf)
	if err != nil {
		return 0, fmt.Errorf("%w: i2c read: %w", ErrBusRead, err)
	}
	if n != len(buf) {
		return 0, fmt.Errorf("%w: got %d of %d bytes", ErrShortRead, n, len(buf))
	}

	return float64(binary.BigEndian.Uint16(buf)) / s.divisor, nil
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
