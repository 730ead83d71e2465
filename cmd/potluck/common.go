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
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/blinklabs-io/potluck"
	"github.com/blinklabs-io/potluck/internal/config"
	"github.com/blinklabs-io/potluck/internal/node"
	"github.com/blinklabs-io/potluck/ledger"
	"github.com/blinklabs-io/potluck/pot"
	"github.com/spf13/cobra"
)

// resolveIdentity accepts an address, or any other string as a dev
// identity key
func resolveIdentity(val string) (ledger.Address, error) {
	if val == "" {
		return ledger.Address{}, errors.New("identity must not be empty")
	}
	if addr, err := ledger.ParseAddress(val); err == nil {
		return addr, nil
	}
	return ledger.IdentityFromKey([]byte(val)), nil
}

// resolvePot accepts a pot address, or a pot name created by authority
func resolvePot(val string, authority string) (ledger.Address, error) {
	if addr, err := ledger.ParseAddress(val); err == nil {
		return addr, nil
	}
	if authority == "" {
		return ledger.Address{}, fmt.Errorf(
			"%q is not an address; pass --authority to look it up by name",
			val,
		)
	}
	authAddr, err := resolveIdentity(authority)
	if err != nil {
		return ledger.Address{}, err
	}
	return pot.PotAddress(authAddr, val)
}

// withNode runs fn against a freshly opened node and stops it afterward
func withNode(
	cmd *cobra.Command,
	fn func(ctx context.Context, n *potluck.Node) error,
) error {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return errors.New("no config found in context")
	}
	logger := commonRun(os.Stderr)
	n, err := node.Open(cfg, logger)
	if err != nil {
		return err
	}
	err = fn(cmd.Context(), n)
	return errors.Join(err, n.Stop())
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
