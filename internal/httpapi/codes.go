package httpapi

import (
	"crypto/rand"
	"errors"
	"math/big"
	"regexp"

	"github.com/inin7674/lol-team/internal/hub"
	"github.com/inin7674/lol-team/internal/room"
)

// Room codes avoid the lookalike characters 0, 1, O and I.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	codeLength      = 6
	maxCodeAttempts = 8
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{4,10}$`)

var errCodeExhausted = errors.New("failed to allocate room code")

func GenerateCode() (string, error) {
	code := make([]byte, codeLength)
	for i := 0; i < codeLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[num.Int64()]
	}
	return string(code), nil
}

// allocateCode probes the hub for a free code, bounded so a saturated
// code space fails instead of spinning.
func allocateCode(h *hub.Hub) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := GenerateCode()
		if err != nil {
			return "", err
		}
		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.Lookup{Code: code, Reply: reply}
		if <-reply == nil {
			return code, nil
		}
	}
	return "", errCodeExhausted
}

func validCode(code string) bool {
	return codePattern.MatchString(code)
}
