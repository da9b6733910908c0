package model

import "github.com/ethereum/go-ethereum/common"

// ValidatePair reports whether (a, b) forms a well-formed pair. The only rule
// is no self-pairing; allowlist membership is deliberately not checked here.
func ValidatePair(a, b common.Address) bool {
	return a != b
}
