package qrcode

import qr "github.com/skip2/go-qrcode"

// Generate renders a join URL as a 256px PNG QR code.
func Generate(url string) ([]byte, error) {
	return qr.Encode(url, qr.Medium, 256)
}
