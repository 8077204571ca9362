package device

import (
	"context"
)

// Source dumps hierarchies and screenshots from a configured or auto-detected device.
type Source struct {
	ADB     *ADB
	Serial  string // default device; empty means first online device
	Options DumpOptions
}

// DumpHierarchy dumps the UI hierarchy of serial, or of the default device when serial is empty.
func (s *Source) DumpHierarchy(ctx context.Context, serial string) (string, error) {
	d, err := s.device(ctx, serial)
	if err != nil {
		return "", err
	}
	return d.DumpHierarchy(ctx)
}

// Screenshot captures the screen of serial, or of the default device when serial is empty.
func (s *Source) Screenshot(ctx context.Context, serial string) ([]byte, error) {
	d, err := s.device(ctx, serial)
	if err != nil {
		return nil, err
	}
	return d.Screenshot(ctx)
}

func (s *Source) device(ctx context.Context, serial string) (*AndroidDevice, error) {
	if serial == "" {
		serial = s.Serial
	}
	return s.ADB.Device(ctx, serial, s.Options)
}
