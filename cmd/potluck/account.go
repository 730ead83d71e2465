// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/blinklabs-io/potluck"
	"github.com/blinklabs-io/potluck/api"
	"github.com/blinklabs-io/potluck/internal/version"
	"github.com/blinklabs-io/potluck/ledger"
	"github.com/spf13/cobra"
)

func airdropCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "airdrop <identity> <amount>",
		Short: "Credit funds to an identity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			addr, err := resolveIdentity(cmdArgs[0])
			if err != nil {
				return err
			}
			amount, err := strconv.ParseUint(cmdArgs[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", cmdArgs[1], err)
			}
			return withNode(cmd, func(ctx context.Context, n *potluck.Node) error {
				if err := n.Airdrop(ctx, addr, amount); err != nil {
					return err
				}
				return printBalance(ctx, cmd, n, addr)
			})
		},
	}
	return cmd
}

func balanceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance <identity>",
		Short: "Show the balance of an identity or account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			addr, err := resolveIdentity(cmdArgs[0])
			if err != nil {
				return err
			}
			return withNode(cmd, func(ctx context.Context, n *potluck.Node) error {
				return printBalance(ctx, cmd, n, addr)
			})
		},
	}
	return cmd
}

func printBalance(
	ctx context.Context,
	cmd *cobra.Command,
	n *potluck.Node,
	addr ledger.Address,
) error {
	balance, err := n.Program().Balance(ctx, addr)
	if err != nil {
		return err
	}
	return printJSON(cmd, api.BalanceResponse{
		Address: addr.String(),
		Balance: strconv.FormatUint(balance, 10),
	})
}

func addressCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address <name>",
		Short: "Show the address of a dev identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			addr, err := resolveIdentity(cmdArgs[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", addr.String(), addr.Hex())
			return err
		},
	}
	return cmd
}

func versionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), programName+" "+version.GetVersionString())
			return err
		},
	}
	return cmd
}
