package main

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/agnes-pro/Automated-Market-Maker/internal/model"
)

func jsonIndent(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func runShowPool(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if !s.found {
		return fmt.Errorf("no ledger snapshot found; run init first")
	}

	assetIn, err := addrFlag(cmd, "asset-in")
	if err != nil {
		return err
	}
	assetOut, err := addrFlag(cmd, "asset-out")
	if err != nil {
		return err
	}

	rec, ok := findPool(s.state, assetIn, assetOut)
	if !ok {
		return fmt.Errorf("no pool for ordered pair %s -> %s", assetIn.Hex(), assetOut.Hex())
	}

	out, err := jsonIndent(rec)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func runShowPosition(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if !s.found {
		return fmt.Errorf("no ledger snapshot found; run init first")
	}

	user, err := addrFlag(cmd, "user")
	if err != nil {
		return err
	}
	assetIn, err := addrFlag(cmd, "asset-in")
	if err != nil {
		return err
	}
	assetOut, err := addrFlag(cmd, "asset-out")
	if err != nil {
		return err
	}

	// Absent positions read back as zero shares, matching the ledger.
	rec, ok := findPosition(s.state, user, assetIn, assetOut)
	if !ok {
		rec = model.PositionRecord{
			User:     user.Hex(),
			AssetIn:  assetIn.Hex(),
			AssetOut: assetOut.Hex(),
			Shares:   "0",
		}
	}

	out, err := jsonIndent(rec)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func findPool(state model.State, assetIn, assetOut common.Address) (model.PoolRecord, bool) {
	for _, rec := range state.Pools {
		if common.HexToAddress(rec.AssetIn) == assetIn && common.HexToAddress(rec.AssetOut) == assetOut {
			return rec, true
		}
	}
	return model.PoolRecord{}, false
}

func findPosition(state model.State, user, assetIn, assetOut common.Address) (model.PositionRecord, bool) {
	for _, rec := range state.Positions {
		if common.HexToAddress(rec.User) == user &&
			common.HexToAddress(rec.AssetIn) == assetIn &&
			common.HexToAddress(rec.AssetOut) == assetOut {
			return rec, true
		}
	}
	return model.PositionRecord{}, false
}
