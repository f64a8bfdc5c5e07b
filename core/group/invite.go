package group

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	inviteCodeLen      = 6
	inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxInviteCodeTries = 5
)

var newInviteCode = generateInviteCode // mockable

// generateInviteCode returns a random upper-case base36 code.
func generateInviteCode() (string, error) {
	var sb strings.Builder
	sb.Grow(inviteCodeLen)
	max := big.NewInt(int64(len(inviteCodeAlphabet)))
	for i := 0; i < inviteCodeLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(inviteCodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// CleanInviteCode normalizes a user-typed invite code.
func CleanInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
