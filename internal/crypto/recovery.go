package crypto

import (
	"fmt"
	"strings"
)

// recoveryAlphabet is Crockford's base32 alphabet. No I, L, O or U, so keys
// survive being read aloud or copied by hand.
const recoveryAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// MaxRecoveryDimension bounds both the block count and the block size
const MaxRecoveryDimension = 64

// GenerateRecoveryKey returns blocks groups of blockSize random characters
// joined by dashes, e.g. "7F3K-Q9ZD-M2XA-PB8R".
func GenerateRecoveryKey(blocks, blockSize int) (string, error) {
	if blocks < 1 || blocks > MaxRecoveryDimension {
		return "", fmt.Errorf("%w: blocks must be between 1 and %d", ErrInvalidRecoveryFormat, MaxRecoveryDimension)
	}
	if blockSize < 1 || blockSize > MaxRecoveryDimension {
		return "", fmt.Errorf("%w: block size must be between 1 and %d", ErrInvalidRecoveryFormat, MaxRecoveryDimension)
	}

	raw, err := randomBytes(blocks * blockSize)
	if err != nil {
		return "", err
	}
	defer ClearBytes(raw)

	var sb strings.Builder
	sb.Grow(blocks*blockSize + blocks - 1)
	for i, b := range raw {
		if i > 0 && i%blockSize == 0 {
			sb.WriteByte('-')
		}
		// 256 is a multiple of 32, so masking keeps the draw uniform
		sb.WriteByte(recoveryAlphabet[b&31])
	}
	return sb.String(), nil
}
