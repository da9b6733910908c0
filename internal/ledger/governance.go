package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// AddAllowedToken marks a token approved on the governance allowlist. Only the
// owner may call it, and the owner's own identifier is rejected as a token.
// Re-adding an approved token is a no-op success.
//
// Note that no pool transition consults the allowlist; it is bookkeeping the
// owner maintains for integrators.
func (l *Ledger) AddAllowedToken(caller, tok common.Address) (bool, error) {
	if caller != l.owner {
		return false, ErrUnauthorized.Wrap("only the owner may modify the allowlist")
	}
	if tok == l.owner {
		return false, ErrInvalidToken.Wrap("owner identifier cannot be allowlisted as a token")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.allowed[tok] {
		return true, nil
	}
	l.allowed[tok] = true

	l.logger.Info("token allowlisted", zap.String("token", tok.Hex()))
	return true, nil
}

// SetRewardRate updates the governance reward rate. Owner-only, bounded to
// [0, MaxRewardRate]. Nothing in the ledger consumes the rate; accrual lives
// outside the core.
func (l *Ledger) SetRewardRate(caller common.Address, rate uint64) error {
	if caller != l.owner {
		return ErrUnauthorized.Wrap("only the owner may set the reward rate")
	}
	if rate > MaxRewardRate {
		return ErrInvalidAmount.Wrapf("reward rate %d exceeds maximum %d", rate, MaxRewardRate)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.rewardRate = rate
	l.logger.Info("reward rate updated", zap.Uint64("rate", rate))
	return nil
}
