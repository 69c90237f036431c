package output

import (
	"fmt"
	"io"

	"github.com/mdp/qrterminal/v3"
	"rsc.io/qr"
)

// QRConfig configures QR code rendering.
type QRConfig struct {
	Level      qr.Level
	QuietZone  int
	HalfBlocks bool
}

// DefaultQRConfig suits pairing URIs, which are long: low error correction
// keeps the code small enough for an 80 column terminal.
func DefaultQRConfig() QRConfig {
	return QRConfig{
		Level:      qr.L,
		QuietZone:  1,
		HalfBlocks: true,
	}
}

// CanRenderQR checks if the output writer is a terminal suitable for QR rendering.
func CanRenderQR(w io.Writer) bool {
	return isTerminal(w)
}

// RenderQR renders data as a QR code when w is a terminal and is a no-op
// otherwise.
func RenderQR(w io.Writer, data string, cfg QRConfig) error {
	if !CanRenderQR(w) {
		return nil
	}

	qrterminal.GenerateWithConfig(data, qrterminal.Config{
		Level:          cfg.Level,
		Writer:         w,
		QuietZone:      cfg.QuietZone,
		HalfBlocks:     cfg.HalfBlocks,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
	})
	return nil
}

// EncodeQR returns the PNG encoding of data.
func EncodeQR(data string, cfg QRConfig) ([]byte, error) {
	code, err := qr.Encode(data, cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("encoding qr: %w", err)
	}
	return code.PNG(), nil
}

// RenderPairing shows a pairing URI: as a QR code followed by the URI on a
// terminal, as the bare URI elsewhere.
func RenderPairing(w io.Writer, uri string, cfg QRConfig) error {
	if CanRenderQR(w) {
		if _, err := fmt.Fprintln(w, "Scan with your wallet to connect:"); err != nil {
			return err
		}
		if err := RenderQR(w, uri, cfg); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, uri)
	return err
}
