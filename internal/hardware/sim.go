package hardware

import (
	"encoding/binary"
	"sync"
)

// SimGPIO is an in-memory pin bank. Unwritten inputs read high, which a
// pulled-up water probe reports as dry.
type SimGPIO struct {
	mu     sync.Mutex
	levels map[string]int
}

// DigitalRead returns the pin's level.
func (g *SimGPIO) DigitalRead(pin string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if l, ok := g.levels[pin]; ok {
		return l, nil
	}
	return 1, nil
}

// DigitalWrite sets the pin's level.
func (g *SimGPIO) DigitalWrite(pin string, level byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.levels[pin] = int(level)
	return nil
}

// SetInput forces an input level, e.g. 0 to flood a probe.
func (g *SimGPIO) SetInput(pin string, level int) {
	g.mu.Lock()
	g.levels[pin] = level
	g.mu.Unlock()
}

// SimI2C answers a BH1750 measurement with a fixed raw count.
type SimI2C struct {
	mu  sync.Mutex
	raw uint16
}

// WriteByte accepts the measurement command.
func (s *SimI2C) WriteByte(byte) error { return nil }

// Read returns the raw count big-endian.
func (s *SimI2C) Read(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], s.raw)
	return copy(b, buf[:]), nil
}

// SetRaw sets the count the next read returns.
func (s *SimI2C) SetRaw(raw uint16) {
	s.mu.Lock()
	s.raw = raw
	s.mu.Unlock()
}

// SimSPI answers an MCP3008 conversion with a fixed 10-bit code.
type SimSPI struct {
	mu   sync.Mutex
	code int
}

// ReadCommandData fills data with the MCP3008 response frame.
func (s *SimSPI) ReadCommandData(_ []byte, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(data) >= 3 {
		data[0] = 0
		data[1] = byte(s.code>>8) & 0x03
		data[2] = byte(s.code)
	}
	return nil
}

// SetCode sets the code the next conversion returns.
func (s *SimSPI) SetCode(code int) {
	s.mu.Lock()
	s.code = code & 0x3FF
	s.mu.Unlock()
}

// NewSimBoard returns a board backed by in-memory devices: 250 lux
// (raw 300 at divisor 1.2), pH near 7 and dry probes.
func NewSimBoard() *Board {
	return &Board{
		GPIO: &SimGPIO{levels: make(map[string]int)},
		I2C:  &SimI2C{raw: 300},
		SPI:  &SimSPI{code: 775},
	}
}
