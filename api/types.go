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

package api

// RootResponse is returned by GET /.
type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Program string `json:"program"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	IsHealthy  bool  `json:"is_healthy"`
	ServerTime int64 `json:"server_time"`
}

// ErrorResponse is the error body for all endpoints.
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
	Code       uint32 `json:"code,omitempty"`
}

// PotResponse represents a pot. Amounts are decimal strings so they
// survive JSON decoders that use float64.
type PotResponse struct {
	Address          string   `json:"address"`
	Authority        string   `json:"authority"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	TargetAmount     string   `json:"target_amount"`
	TotalContributed string   `json:"total_contributed"`
	Balance          string   `json:"balance"`
	Status           string   `json:"status"`
	Recipient        *string  `json:"recipient"`
	ReleasedAt       *int64   `json:"released_at"`
	Signatures       []string `json:"signatures,omitempty"`
	Contributors     []string `json:"contributors,omitempty"`
	UnlockTimestamp  int64    `json:"unlock_timestamp"`
	CreatedAt        int64    `json:"created_at"`
	Progress         float64  `json:"progress"`
	SignersRequired  uint8    `json:"signers_required"`
	SignatureCount   int      `json:"signature_count"`
	ContributorCount int      `json:"contributor_count"`
	TimeLockExpired  bool     `json:"time_lock_expired"`
	QuorumReached    bool     `json:"quorum_reached"`
}

// ContributorResponse represents one identity enrolled in a pot.
// Account is nil until the identity has deposited.
type ContributorResponse struct {
	Contributor        string  `json:"contributor"`
	Account            *string `json:"account"`
	TotalContributed   string  `json:"total_contributed"`
	ContributionCount  uint32  `json:"contribution_count"`
	JoinedAt           int64   `json:"joined_at"`
	LastContributionAt int64   `json:"last_contribution_at"`
	Position           int     `json:"position"`
	Signed             bool    `json:"signed"`
	IsAuthority        bool    `json:"is_authority"`
}

// BalanceResponse is returned by GET /api/v0/accounts/{address}/balance.
type BalanceResponse struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}
