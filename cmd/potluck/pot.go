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
	"github.com/blinklabs-io/potluck/ledger"
	"github.com/blinklabs-io/potluck/pot"
	"github.com/spf13/cobra"
)

type potOutput struct {
	Pot          api.PotResponse           `json:"pot"`
	Contributors []api.ContributorResponse `json:"contributors,omitempty"`
}

func showPot(
	ctx context.Context,
	cmd *cobra.Command,
	n *potluck.Node,
	addr ledger.Address,
	withContributors bool,
) error {
	snap, err := n.Program().PotSnapshot(ctx, addr)
	if err != nil {
		return err
	}
	out := potOutput{
		Pot: api.PotSnapshotResponse(snap, n.Ledger().Now().Unix()),
	}
	if withContributors {
		out.Contributors = api.ContributorResponses(snap)
	}
	return printJSON(cmd, out)
}

func createCommand() *cobra.Command {
	var as string
	var args pot.CreatePotArgs
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a pot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			authority, err := resolveIdentity(as)
			if err != nil {
				return err
			}
			args.Name = cmdArgs[0]
			return withNode(cmd, func(ctx context.Context, n *potluck.Node) error {
				created, err := n.Program().CreatePot(ctx, authority, args)
				if err != nil {
					return err
				}
				return showPot(ctx, cmd, n, created.Address, false)
			})
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "identity creating the pot")
	cmd.Flags().StringVar(&args.Description, "description", "", "pot description")
	cmd.Flags().Uint64Var(&args.TargetAmount, "target", 0, "target amount")
	cmd.Flags().Uint64Var(&args.UnlockDays, "unlock-days", 0, "days until release is allowed")
	cmd.Flags().Uint8Var(&args.SignersRequired, "signers", 1, "contributor signatures required for release")
	_ = cmd.MarkFlagRequired("as")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("unlock-days")
	return cmd
}

func contributeCommand() *cobra.Command {
	var as, authority string
	cmd := &cobra.Command{
		Use:   "contribute <pot> <amount>",
		Short: "Deposit funds into a pot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			contributor, err := resolveIdentity(as)
			if err != nil {
				return err
			}
			potAddr, err := resolvePot(cmdArgs[0], authority)
			if err != nil {
				return err
			}
			amount, err := strconv.ParseUint(cmdArgs[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", cmdArgs[1], err)
			}
			return withNode(cmd, func(ctx context.Context, n *potluck.Node) error {
				if _, _, err := n.Program().Contribute(ctx, contributor, potAddr, amount); err != nil {
					return err
				}
				return showPot(ctx, cmd, n, potAddr, true)
			})
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "contributing identity")
	cmd.Flags().StringVar(&authority, "authority", "", "pot authority, when the pot is given by name")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func signCommand() *cobra.Command {
	var as, authority string
	cmd := &cobra.Command{
		Use:   "sign <pot>",
		Short: "Sign the release of a pot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			signer, err := resolveIdentity(as)
			if err != nil {
				return err
			}
			potAddr, err := resolvePot(cmdArgs[0], authority)
			if err != nil {
				return err
			}
			return withNode(cmd, func(ctx context.Context, n *potluck.Node) error {
				if _, err := n.Program().SignRelease(ctx, signer, potAddr); err != nil {
					return err
				}
				return showPot(ctx, cmd, n, potAddr, false)
			})
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "signing contributor")
	cmd.Flags().StringVar(&authority, "authority", "", "pot authority, when the pot is given by name")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func releaseCommand() *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "release <pot> <recipient>",
		Short: "Release a pot's funds to a recipient",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			authority, err := resolveIdentity(as)
			if err != nil {
				return err
			}
			potAddr, err := resolvePot(cmdArgs[0], as)
			if err != nil {
				return err
			}
			recipient, err := resolveIdentity(cmdArgs[1])
			if err != nil {
				return err
			}
			return withNode(cmd, func(ctx context.Context, n *potluck.Node) error {
				if _, err := n.Program().ReleaseFunds(ctx, authority, potAddr, recipient); err != nil {
					return err
				}
				return showPot(ctx, cmd, n, potAddr, false)
			})
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "pot authority")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func addContributorCommand() *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "add-contributor <pot> <identity>",
		Short: "Allow another identity to contribute and sign",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			authority, err := resolveIdentity(as)
			if err != nil {
				return err
			}
			potAddr, err := resolvePot(cmdArgs[0], as)
			if err != nil {
				return err
			}
			identity, err := resolveIdentity(cmdArgs[1])
			if err != nil {
				return err
			}
			return withNode(cmd, func(ctx context.Context, n *potluck.Node) error {
				if _, err := n.Program().AddContributor(ctx, authority, potAddr, identity); err != nil {
					return err
				}
				return showPot(ctx, cmd, n, potAddr, true)
			})
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "pot authority")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func showCommand() *cobra.Command {
	var authority string
	cmd := &cobra.Command{
		Use:   "show <pot>",
		Short: "Show a pot and its contributors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			potAddr, err := resolvePot(cmdArgs[0], authority)
			if err != nil {
				return err
			}
			return withNode(cmd, func(ctx context.Context, n *potluck.Node) error {
				return showPot(ctx, cmd, n, potAddr, true)
			})
		},
	}
	cmd.Flags().StringVar(&authority, "authority", "", "pot authority, when the pot is given by name")
	return cmd
}

func listCommand() *cobra.Command {
	var authority string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all pots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter *ledger.Address
			if authority != "" {
				addr, err := resolveIdentity(authority)
				if err != nil {
					return err
				}
				filter = &addr
			}
			return withNode(cmd, func(ctx context.Context, n *potluck.Node) error {
				pots, err := n.Program().ListPots(ctx)
				if err != nil {
					return err
				}
				now := n.Ledger().Now().Unix()
				out := make([]api.PotResponse, 0, len(pots))
				for _, p := range pots {
					if filter != nil && p.Authority != *filter {
						continue
					}
					snap, err := n.Program().PotSnapshot(ctx, p.Address)
					if err != nil {
						return err
					}
					out = append(out, api.PotSnapshotResponse(snap, now))
				}
				return printJSON(cmd, out)
			})
		},
	}
	cmd.Flags().StringVar(&authority, "authority", "", "only list pots created by this identity")
	return cmd
}
