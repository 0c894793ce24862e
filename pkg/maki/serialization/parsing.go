// Package serialization decodes and encodes the binary dialects of compiled MAKI modules.
package serialization

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/makiscript/gomaki/pkg/errs"
	"github.com/makiscript/gomaki/pkg/maki/metrics"
	"github.com/makiscript/gomaki/pkg/maki/program"
)

//go:generate mockgen -destination=../../mock/decoder.go -package=mock github.com/makiscript/gomaki/pkg/maki/serialization Decoder

// Decoder turns the body of one dialect (everything after the header) into a canonical Module.
type Decoder interface {
	Dialect() program.Dialect
	Decode(body []byte) (*program.Module, error)
}

// Loader selects a Decoder by the version marker in the module header.
type Loader struct {
	decoders map[uint16]Decoder
}

// NewLoader registers decoders by the marker of their dialect. Two decoders for one marker are rejected.
func NewLoader(decoders ...Decoder) (*Loader, error) {
	l := &Loader{decoders: make(map[uint16]Decoder, len(decoders))}
	for _, d := range decoders {
		marker := d.Dialect().Marker()
		if _, ok := l.decoders[marker]; ok {
			return nil, errors.Errorf("duplicate decoder for marker 0x%04x (%s)", marker, d.Dialect())
		}
		l.decoders[marker] = d
	}
	return l, nil
}

var defaultLoader = func() *Loader {
	l, err := NewLoader(Decoders()...)
	if err != nil {
		panic(err)
	}
	return l
}()

// DefaultLoader knows every observed dialect.
func DefaultLoader() *Loader {
	return defaultLoader
}

// Parse loads a module with the default loader.
func Parse(data []byte) (*program.Module, error) {
	return defaultLoader.Load(data)
}

type header struct {
	marker uint16
}

func parseHeader(data []byte) (header, error) {
	if len(data) < program.HeaderSize {
		return header{}, errs.TruncatedInput.Errorf("module header needs %d bytes, got %d", program.HeaderSize, len(data))
	}
	if string(data[:len(program.Magic)]) != program.Magic {
		return header{}, errs.UnknownDialect.Errorf("bad magic %q", data[:len(program.Magic)])
	}
	return header{marker: binary.LittleEndian.Uint16(data[len(program.Magic):program.HeaderSize])}, nil
}

// Load decodes data with the decoder registered for its header. Either a valid Module is returned
// or an error, never both.
func (l *Loader) Load(data []byte) (*program.Module, error) {
	h, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	d, ok := l.decoders[h.marker]
	if !ok {
		return nil, errs.UnknownDialect.Errorf("unsupported version marker 0x%04x", h.marker)
	}
	m, err := d.Decode(data[program.HeaderSize:])
	if err != nil {
		return nil, err
	}
	metrics.ModuleLoaded(m.Dialect.String())
	return m, nil
}

// Detect reports the dialect of data by its header alone.
func (l *Loader) Detect(data []byte) (program.Dialect, error) {
	h, err := parseHeader(data)
	if err != nil {
		return program.DialectCanonical, err
	}
	d, ok := l.decoders[h.marker]
	if !ok {
		return program.DialectCanonical, errs.UnknownDialect.Errorf("unsupported version marker 0x%04x", h.marker)
	}
	return d.Dialect(), nil
}

// DetectDialect is Detect of the default loader.
func DetectDialect(data []byte) (program.Dialect, error) {
	return defaultLoader.Detect(data)
}
