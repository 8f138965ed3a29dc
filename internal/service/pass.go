package service

import (
	"fmt"
	"strings"

	"clubly/internal/models"

	"github.com/skip2/go-qrcode"
)

const passQRSize = 512

// PassService generates entry passes for confirmed bookings.
type PassService struct {
	level qrcode.RecoveryLevel
	size  int
}

func NewPassService() *PassService {
	return &PassService{level: qrcode.Medium, size: passQRSize}
}

// PassContent is what the door staff scans: booking, event and party.
func PassContent(result models.BookingResult, event models.Event, bookingType models.BookingType, partySize int) string {
	return strings.Join([]string{
		"CLUBLY",
		"booking:" + result.BookingID,
		"event:" + event.ID,
		"type:" + string(bookingType),
		fmt.Sprintf("party:%d", partySize),
	}, "|")
}

// QR renders content as a PNG.
func (s *PassService) QR(content string) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("empty pass content")
	}
	png, err := qrcode.Encode(content, s.level, s.size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr: %w", err)
	}
	return png, nil
}
