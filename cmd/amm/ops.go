package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agnes-pro/Automated-Market-Maker/internal/config"
	"github.com/agnes-pro/Automated-Market-Maker/internal/ledger"
	"github.com/agnes-pro/Automated-Market-Maker/internal/model"
	"github.com/agnes-pro/Automated-Market-Maker/internal/storage"
	"github.com/agnes-pro/Automated-Market-Maker/internal/storage/postgres"
	"github.com/agnes-pro/Automated-Market-Maker/internal/token"
)

// session wires one CLI invocation: config, logger, snapshot store, and the
// ledger rebuilt from the stored state.
type session struct {
	ctx    context.Context
	stop   context.CancelFunc
	cfg    config.Config
	logger *zap.Logger
	store  storage.Store
	closer func()

	state model.State
	found bool

	bank   *token.Bank
	ledger *ledger.Ledger
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	s := &session{ctx: ctx, stop: stop, cfg: cfg, logger: logger, closer: func() {}}

	if cfg.PgDSN != "" {
		pgStore, err := postgres.NewStore(ctx, cfg.PgDSN)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pgStore.Init(ctx); err != nil {
			pgStore.Close()
			s.close()
			return nil, fmt.Errorf("init postgres schema: %w", err)
		}
		s.store = pgStore
		s.closer = pgStore.Close
	} else {
		s.store = storage.NewFileStore(cfg.StateFile)
	}

	s.state, s.found, err = s.store.Load(ctx)
	if err != nil {
		s.close()
		return nil, err
	}

	return s, nil
}

func (s *session) close() {
	s.closer()
	s.logger.Sync()
	s.stop()
}

// buildLedger rebuilds the bank and ledger from the loaded snapshot.
func (s *session) buildLedger() error {
	if !s.found {
		return fmt.Errorf("no ledger snapshot found; run init first")
	}
	bank, err := token.NewBankFromRecords(s.state.Balances)
	if err != nil {
		return err
	}
	led, err := ledger.NewFromState(s.state, bank, ledger.Config{ApplyFee: s.cfg.ApplyFee}, s.logger)
	if err != nil {
		return err
	}
	s.bank = bank
	s.ledger = led
	return nil
}

// save exports the ledger and bank back into one snapshot and persists it.
func (s *session) save() error {
	state := s.ledger.Export()
	state.Balances = s.bank.Export()
	return s.store.Save(s.ctx, state)
}

func addrFlag(cmd *cobra.Command, name string) (common.Address, error) {
	value, _ := cmd.Flags().GetString(name)
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("--%s: %q is not a valid address", name, value)
	}
	return common.HexToAddress(value), nil
}

func amountFlag(cmd *cobra.Command, name string) (*uint256.Int, error) {
	value, _ := cmd.Flags().GetString(name)
	amount, err := model.ParseAmount(value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return amount, nil
}

func pairFlags(cmd *cobra.Command) (caller, assetIn, assetOut common.Address, err error) {
	if caller, err = addrFlag(cmd, "caller"); err != nil {
		return
	}
	if assetIn, err = addrFlag(cmd, "asset-in"); err != nil {
		return
	}
	assetOut, err = addrFlag(cmd, "asset-out")
	return
}

func runInit(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if s.found {
		return fmt.Errorf("ledger already initialized (owner %s)", s.state.Owner)
	}

	// Owner merges like every other setting: --owner flag, AMM_OWNER env,
	// or an owner entry in the config file.
	if !common.IsHexAddress(s.cfg.Owner) {
		return fmt.Errorf("owner: %q is not a valid address", s.cfg.Owner)
	}
	owner := common.HexToAddress(s.cfg.Owner)

	if err := s.store.Save(s.ctx, model.State{Owner: owner.Hex()}); err != nil {
		return err
	}

	s.logger.Info("ledger initialized", zap.String("owner", owner.Hex()))
	return nil
}

func runMint(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.buildLedger(); err != nil {
		return err
	}

	to, err := addrFlag(cmd, "to")
	if err != nil {
		return err
	}
	asset, err := addrFlag(cmd, "asset")
	if err != nil {
		return err
	}
	amount, err := amountFlag(cmd, "amount")
	if err != nil {
		return err
	}

	s.bank.Mint(to, asset, amount)
	if err := s.save(); err != nil {
		return err
	}

	s.logger.Info("minted",
		zap.String("to", to.Hex()),
		zap.String("asset", asset.Hex()),
		zap.String("amount", model.FormatAmount(amount)),
	)
	return nil
}

func runCreatePool(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.buildLedger(); err != nil {
		return err
	}

	caller, assetIn, assetOut, err := pairFlags(cmd)
	if err != nil {
		return err
	}
	amountIn, err := amountFlag(cmd, "amount-in")
	if err != nil {
		return err
	}
	amountOut, err := amountFlag(cmd, "amount-out")
	if err != nil {
		return err
	}

	if _, err := s.ledger.CreatePool(s.ctx, caller, assetIn, assetOut, amountIn, amountOut); err != nil {
		return err
	}
	return s.save()
}

func runAddLiquidity(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.buildLedger(); err != nil {
		return err
	}

	caller, assetIn, assetOut, err := pairFlags(cmd)
	if err != nil {
		return err
	}
	amountIn, err := amountFlag(cmd, "amount-in")
	if err != nil {
		return err
	}
	amountOut, err := amountFlag(cmd, "amount-out")
	if err != nil {
		return err
	}

	if _, err := s.ledger.AddLiquidity(s.ctx, caller, assetIn, assetOut, amountIn, amountOut); err != nil {
		return err
	}
	return s.save()
}

func runRemoveLiquidity(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.buildLedger(); err != nil {
		return err
	}

	caller, assetIn, assetOut, err := pairFlags(cmd)
	if err != nil {
		return err
	}
	shares, err := amountFlag(cmd, "shares")
	if err != nil {
		return err
	}

	if _, err := s.ledger.RemoveLiquidity(s.ctx, caller, assetIn, assetOut, shares); err != nil {
		return err
	}
	return s.save()
}

func runSwap(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.buildLedger(); err != nil {
		return err
	}

	caller, assetIn, assetOut, err := pairFlags(cmd)
	if err != nil {
		return err
	}
	amountIn, err := amountFlag(cmd, "amount-in")
	if err != nil {
		return err
	}

	amountOut, err := s.ledger.Swap(s.ctx, caller, assetIn, assetOut, amountIn)
	if err != nil {
		return err
	}
	if err := s.save(); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), model.FormatAmount(amountOut))
	return nil
}

func runAllowToken(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.buildLedger(); err != nil {
		return err
	}

	caller, err := addrFlag(cmd, "caller")
	if err != nil {
		return err
	}
	tok, err := addrFlag(cmd, "token")
	if err != nil {
		return err
	}

	if _, err := s.ledger.AddAllowedToken(caller, tok); err != nil {
		return err
	}
	return s.save()
}

func runSetRewardRate(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.buildLedger(); err != nil {
		return err
	}

	caller, err := addrFlag(cmd, "caller")
	if err != nil {
		return err
	}
	rate, _ := cmd.Flags().GetUint64("rate")

	if err := s.ledger.SetRewardRate(caller, rate); err != nil {
		return err
	}
	return s.save()
}

func runShow(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if !s.found {
		return fmt.Errorf("no ledger snapshot found; run init first")
	}

	out, err := jsonIndent(s.state)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
