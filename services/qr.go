package services

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// BuildTableQRPayload is the URL printed on the physical table QR code.
// Scanning it lands the customer on the frontend's menu page for that table.
func BuildTableQRPayload(frontendBaseURL string, restaurantID, tableID uint) string {
	return fmt.Sprintf("%s/r/%d/t/%d", strings.TrimRight(frontendBaseURL, "/"), restaurantID, tableID)
}

// GenerateQRPNG renders the payload as a 256x256 PNG.
func GenerateQRPNG(payload string) ([]byte, error) {
	return qrcode.Encode(payload, qrcode.Medium, 256)
}
