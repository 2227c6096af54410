package hw

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/mfrc522"
)

// readTimeout is how long a single presence poll may wait on the reader.
// It stays well under the control loop's 200 ms interval.
const readTimeout = 50 * time.Millisecond

// CardReader adapts the MFRC522 driver to the scan.Driver contract. The
// periph driver reads and halts a card in one step, so the serial is
// cached between CardPresent and ReadSerial, and Halt releases it for the
// next detection.
type CardReader struct {
	port    spi.PortCloser
	dev     *mfrc522.Dev
	pending []byte
}

func NewCardReader(spiDev, resetPin, irqPin string) (*CardReader, error) {
	port, err := spireg.Open(spiDev)
	if err != nil {
		return nil, fmt.Errorf("hw: open spi %q: %w", spiDev, err)
	}

	rst := gpioreg.ByName(resetPin)
	if rst == nil {
		_ = port.Close()
		return nil, fmt.Errorf("hw: no such pin %q", resetPin)
	}
	irq := gpioreg.ByName(irqPin)
	if irq == nil {
		_ = port.Close()
		return nil, fmt.Errorf("hw: no such pin %q", irqPin)
	}

	dev, err := mfrc522.NewSPI(port, rst, irq)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("hw: mfrc522: %w", err)
	}

	return &CardReader{port: port, dev: dev}, nil
}

func (r *CardReader) CardPresent() bool {
	if r.pending != nil {
		return true
	}
	uid, err := r.dev.ReadUID(readTimeout)
	if err != nil {
		// Timeout: no card in the field.
		return false
	}
	r.pending = uid
	return true
}

func (r *CardReader) ReadSerial() ([]byte, bool) {
	if r.pending == nil {
		return nil, false
	}
	out := make([]byte, len(r.pending))
	copy(out, r.pending)
	return out, true
}

// Halt discards the cached serial so the next poll observes a fresh
// detection; the radio-side halt already happened inside the driver.
func (r *CardReader) Halt() {
	r.pending = nil
}

func (r *CardReader) Close() error {
	return r.port.Close()
}
