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

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/blinklabs-io/potluck/database/models"
	"github.com/blinklabs-io/potluck/internal/version"
	"github.com/blinklabs-io/potluck/ledger"
	"github.com/blinklabs-io/potluck/pot"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(
	w http.ResponseWriter,
	status int,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// writeLookupError maps a backend error to a response. Program errors
// carry their numeric code.
func (a *Api) writeLookupError(
	w http.ResponseWriter,
	err error,
	what string,
) {
	switch {
	case errors.Is(err, pot.ErrPotNotFound),
		errors.Is(err, pot.ErrContributorNotFound),
		errors.Is(err, pot.ErrInvalidAccount),
		errors.Is(err, models.ErrPotNotFound):
		resp := ErrorResponse{
			StatusCode: http.StatusNotFound,
			Error:      http.StatusText(http.StatusNotFound),
			Message:    what + " not found",
		}
		if progErr, ok := pot.AsProgramError(err); ok {
			resp.Code = progErr.Code
		}
		writeJSON(w, http.StatusNotFound, resp)
	default:
		a.logger.Error(
			"failed to retrieve "+what,
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"failed to retrieve "+what,
		)
	}
}

// pathAddress parses the named path value as an address, writing a 400
// response on failure
func pathAddress(
	w http.ResponseWriter,
	r *http.Request,
	name string,
) (ledger.Address, bool) {
	addr, err := ledger.ParseAddress(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name+": "+err.Error())
		return ledger.Address{}, false
	}
	return addr, true
}

// handleRoot handles GET / and returns API metadata.
func (a *Api) handleRoot(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, RootResponse{
		Name:    "potluck",
		Version: version.GetVersionString(),
		Program: pot.ProgramID.String(),
	})
}

// handleHealth handles GET /health.
func (a *Api) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy:  true,
		ServerTime: a.backend.Now().Unix(),
	})
}

// handleListPots handles GET /api/v0/pots from the index. It accepts the
// pagination parameters plus authority and status filters.
func (a *Api) handleListPots(
	w http.ResponseWriter,
	r *http.Request,
) {
	query := r.URL.Query()
	page, err := ParsePage(query)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := page.PotFilter(query)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, total, err := a.backend.ListPots(filter)
	if err != nil {
		a.writeLookupError(w, err, "pots")
		return
	}
	now := a.backend.Now().Unix()
	resp := make([]PotResponse, 0, len(rows))
	for i := range rows {
		item, err := potRowResponse(&rows[i], now)
		if err != nil {
			a.writeLookupError(w, err, "pots")
			return
		}
		resp = append(resp, item)
	}
	writePageHeaders(w, int(total), page)
	writeJSON(w, http.StatusOK, resp)
}

// handleGetPot handles GET /api/v0/pots/{address} from the ledger.
func (a *Api) handleGetPot(
	w http.ResponseWriter,
	r *http.Request,
) {
	addr, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	snap, err := a.backend.PotSnapshot(r.Context(), addr)
	if err != nil {
		a.writeLookupError(w, err, "pot")
		return
	}
	writeJSON(
		w,
		http.StatusOK,
		PotSnapshotResponse(snap, a.backend.Now().Unix()),
	)
}

// handleListContributors handles GET /api/v0/pots/{address}/contributors.
func (a *Api) handleListContributors(
	w http.ResponseWriter,
	r *http.Request,
) {
	page, err := ParsePage(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	addr, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	snap, err := a.backend.PotSnapshot(r.Context(), addr)
	if err != nil {
		a.writeLookupError(w, err, "pot")
		return
	}
	resp := ContributorResponses(snap)
	writePageHeaders(w, len(resp), page)
	writeJSON(w, http.StatusOK, pageOf(resp, page))
}

// handleGetContributor handles
// GET /api/v0/pots/{address}/contributors/{contributor}.
func (a *Api) handleGetContributor(
	w http.ResponseWriter,
	r *http.Request,
) {
	addr, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	identity, ok := pathAddress(w, r, "contributor")
	if !ok {
		return
	}
	snap, err := a.backend.PotSnapshot(r.Context(), addr)
	if err != nil {
		a.writeLookupError(w, err, "pot")
		return
	}
	for i, member := range snap.Pot.Contributors {
		if member == identity {
			writeJSON(
				w,
				http.StatusOK,
				contributorResponse(snap, i, identity),
			)
			return
		}
	}
	a.writeLookupError(w, pot.ErrContributorNotFound, "contributor")
}

// handleBalance handles GET /api/v0/accounts/{address}/balance.
func (a *Api) handleBalance(
	w http.ResponseWriter,
	r *http.Request,
) {
	addr, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	balance, err := a.backend.Balance(r.Context(), addr)
	if err != nil {
		a.writeLookupError(w, err, "balance")
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{
		Address: addr.String(),
		Balance: strconv.FormatUint(balance, 10),
	})
}

// handleAccountPots handles GET /api/v0/accounts/{address}/pots and lists
// the addresses of pots the identity is enrolled in.
func (a *Api) handleAccountPots(
	w http.ResponseWriter,
	r *http.Request,
) {
	page, err := ParsePage(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	identity, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	addrs, err := a.backend.PotsByContributor(identity)
	if err != nil {
		a.writeLookupError(w, err, "pots")
		return
	}
	resp := addressStrings(addrs)
	writePageHeaders(w, len(resp), page)
	writeJSON(w, http.StatusOK, pageOf(resp, page))
}

func potRowResponse(row *models.Pot, now int64) (PotResponse, error) {
	addr, err := ledger.NewAddress(row.Address)
	if err != nil {
		return PotResponse{}, err
	}
	authority, err := ledger.NewAddress(row.Authority)
	if err != nil {
		return PotResponse{}, err
	}
	ret := PotResponse{
		Address:          addr.String(),
		Authority:        authority.String(),
		Name:             row.Name,
		Description:      row.Description,
		TargetAmount:     strconv.FormatUint(uint64(row.TargetAmount), 10),
		TotalContributed: strconv.FormatUint(uint64(row.TotalContributed), 10),
		Balance:          strconv.FormatUint(uint64(row.Balance), 10),
		Status:           string(pot.StatusActive),
		UnlockTimestamp:  row.UnlockTimestamp,
		CreatedAt:        row.CreatedTime,
		SignersRequired:  row.SignersRequired,
		SignatureCount:   int(row.SignatureCount),
		ContributorCount: int(row.ContributorCount),
		TimeLockExpired:  now >= row.UnlockTimestamp,
		QuorumReached:    row.SignatureCount >= row.SignersRequired,
	}
	if row.TargetAmount > 0 {
		ret.Progress = float64(row.TotalContributed) / float64(row.TargetAmount)
	}
	if row.Released {
		ret.Status = string(pot.StatusReleased)
		releasedAt := row.ReleasedAt
		ret.ReleasedAt = &releasedAt
		recipient, err := ledger.NewAddress(row.Recipient)
		if err != nil {
			return PotResponse{}, err
		}
		recipientStr := recipient.String()
		ret.Recipient = &recipientStr
	}
	return ret, nil
}

// PotSnapshotResponse renders a canonical pot snapshot as seen at now
func PotSnapshotResponse(snap *pot.Snapshot, now int64) PotResponse {
	p := snap.Pot
	ret := PotResponse{
		Address:          p.Address.String(),
		Authority:        p.Authority.String(),
		Name:             p.Name,
		Description:      p.Description,
		TargetAmount:     strconv.FormatUint(p.TargetAmount, 10),
		TotalContributed: strconv.FormatUint(p.TotalContributed, 10),
		Balance:          strconv.FormatUint(snap.Balance, 10),
		Status:           string(p.Status()),
		Signatures:       addressStrings(p.Signatures),
		Contributors:     addressStrings(p.Contributors),
		UnlockTimestamp:  p.UnlockTimestamp,
		CreatedAt:        p.CreatedAt,
		Progress:         p.Progress(),
		SignersRequired:  p.SignersRequired,
		SignatureCount:   len(p.Signatures),
		ContributorCount: len(p.Contributors),
		TimeLockExpired:  p.TimeLockExpired(now),
		QuorumReached:    p.QuorumReached(),
	}
	if p.IsReleased {
		releasedAt := p.ReleasedAt
		ret.ReleasedAt = &releasedAt
		recipient := p.Recipient.String()
		ret.Recipient = &recipient
	}
	return ret
}

// ContributorResponses renders every enrolled identity of a snapshot in
// enrollment order
func ContributorResponses(snap *pot.Snapshot) []ContributorResponse {
	ret := make([]ContributorResponse, 0, len(snap.Pot.Contributors))
	for i, identity := range snap.Pot.Contributors {
		ret = append(ret, contributorResponse(snap, i, identity))
	}
	return ret
}

func contributorResponse(
	snap *pot.Snapshot,
	position int,
	identity ledger.Address,
) ContributorResponse {
	ret := ContributorResponse{
		Contributor:      identity.String(),
		TotalContributed: "0",
		Position:         position,
		Signed:           snap.Pot.HasSigned(identity),
		IsAuthority:      snap.Pot.Authority == identity,
	}
	if acct := snap.Contributor(identity); acct != nil {
		account := acct.Address.String()
		ret.Account = &account
		ret.TotalContributed = strconv.FormatUint(acct.TotalContributed, 10)
		ret.ContributionCount = acct.ContributionCount
		ret.JoinedAt = acct.JoinedAt
		ret.LastContributionAt = acct.LastContributionAt
	}
	return ret
}

func addressStrings(addrs []ledger.Address) []string {
	ret := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		ret = append(ret, addr.String())
	}
	return ret
}
