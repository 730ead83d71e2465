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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blinklabs-io/potluck/database/models"
	"github.com/blinklabs-io/potluck/database/types"
	"github.com/blinklabs-io/potluck/ledger"
	"github.com/blinklabs-io/potluck/pot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testAuthority = ledger.IdentityFromKey([]byte("authority"))
	testAlice     = ledger.IdentityFromKey([]byte("alice"))
	testBob       = ledger.IdentityFromKey([]byte("bob"))
	testPotAddr   = ledger.IdentityFromKey([]byte("pot"))
)

// mockBackend implements Backend for testing.
type mockBackend struct {
	pots        []models.Pot
	total       int64
	lastFilter  models.PotFilter
	snapshot    *pot.Snapshot
	balances    map[ledger.Address]uint64
	enrolled    []ledger.Address
	now         time.Time
	listErr     error
	snapshotErr error
}

func (m *mockBackend) ListPots(
	filter models.PotFilter,
) ([]models.Pot, int64, error) {
	m.lastFilter = filter
	return m.pots, m.total, m.listErr
}

func (m *mockBackend) PotsByContributor(
	ledger.Address,
) ([]ledger.Address, error) {
	return m.enrolled, nil
}

func (m *mockBackend) PotSnapshot(
	_ context.Context,
	addr ledger.Address,
) (*pot.Snapshot, error) {
	if m.snapshotErr != nil {
		return nil, m.snapshotErr
	}
	if m.snapshot == nil || m.snapshot.Pot.Address != addr {
		return nil, fmt.Errorf("%w: %s", pot.ErrPotNotFound, addr)
	}
	return m.snapshot, nil
}

func (m *mockBackend) Balance(
	_ context.Context,
	addr ledger.Address,
) (uint64, error) {
	return m.balances[addr], nil
}

func (m *mockBackend) Now() time.Time {
	return m.now
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		now: time.Unix(2_000, 0),
		snapshot: &pot.Snapshot{
			Pot: &pot.Pot{
				Address:          testPotAddr,
				Authority:        testAuthority,
				Name:             "trip",
				TargetAmount:     50,
				TotalContributed: 20,
				UnlockTimestamp:  1_000,
				SignersRequired:  2,
				Signatures:       []ledger.Address{testAlice},
				Contributors: []ledger.Address{
					testAuthority,
					testAlice,
					testBob,
				},
				CreatedAt: 500,
			},
			Contributors: []*pot.Contributor{
				{
					Address:           pot.ContributorAddress(testPotAddr, testAlice),
					Pot:               testPotAddr,
					Contributor:       testAlice,
					TotalContributed:  20,
					ContributionCount: 2,
					JoinedAt:          600,
				},
			},
			Balance: 15380,
		},
		balances: map[ledger.Address]uint64{
			testAlice: 980,
		},
	}
}

func newTestApi(backend Backend) *Api {
	return New(
		ApiConfig{
			ListenAddress: "127.0.0.1:0",
		},
		backend,
		nil,
	)
}

func doRequest(t *testing.T, a *Api, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var ret T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ret))
	return ret
}

func TestStartStop(t *testing.T) {
	a := newTestApi(newMockBackend())

	err := a.Start(t.Context())
	require.NoError(t, err)

	a.mu.Lock()
	assert.NotNil(t, a.httpServer)
	a.mu.Unlock()
	assert.NotEqual(t, "127.0.0.1:0", a.Addr())

	// Serve a real request over the listener
	resp, err := http.Get("http://" + a.Addr() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	stopCtx, stopCancel := context.WithTimeout(
		context.Background(),
		5*time.Second,
	)
	defer stopCancel()
	require.NoError(t, a.Stop(stopCtx))

	a.mu.Lock()
	assert.Nil(t, a.httpServer)
	a.mu.Unlock()
}

func TestStartAlreadyStarted(t *testing.T) {
	a := newTestApi(newMockBackend())

	ctx := t.Context()
	require.NoError(t, a.Start(ctx))
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(
			context.Background(),
			5*time.Second,
		)
		defer stopCancel()
		_ = a.Stop(stopCtx)
	}()

	err := a.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")
}

func TestStartListenError(t *testing.T) {
	first := newTestApi(newMockBackend())
	require.NoError(t, first.Start(t.Context()))
	defer func() {
		_ = first.Stop(context.Background())
	}()

	// The port is already taken
	second := New(
		ApiConfig{ListenAddress: first.Addr()},
		newMockBackend(),
		nil,
	)
	require.Error(t, second.Start(t.Context()))
	assert.Empty(t, second.Addr())
}

func TestHandleRootAndHealth(t *testing.T) {
	a := newTestApi(newMockBackend())

	rec := doRequest(t, a, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	root := decodeBody[RootResponse](t, rec)
	assert.Equal(t, "potluck", root.Name)
	assert.Equal(t, pot.ProgramID.String(), root.Program)

	rec = doRequest(t, a, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	health := decodeBody[HealthResponse](t, rec)
	assert.True(t, health.IsHealthy)
	assert.Equal(t, int64(2_000), health.ServerTime)
}

func TestHandleUnknownPath(t *testing.T) {
	rec := doRequest(t, newTestApi(newMockBackend()), "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleListPots(t *testing.T) {
	backend := newMockBackend()
	backend.pots = []models.Pot{
		{
			Address:          testPotAddr.Bytes(),
			Authority:        testAuthority.Bytes(),
			Recipient:        testBob.Bytes(),
			Name:             "trip",
			TargetAmount:     types.Uint64(50),
			TotalContributed: types.Uint64(50),
			UnlockTimestamp:  1_000,
			ReleasedAt:       1_500,
			SignersRequired:  2,
			SignatureCount:   2,
			ContributorCount: 3,
			Released:         true,
		},
	}
	backend.total = 250
	a := newTestApi(backend)

	rec := doRequest(
		t,
		a,
		"/api/v0/pots?count=10&page=2&order=desc&status=released&authority="+
			testAuthority.String(),
	)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "250", rec.Header().Get("X-Pagination-Count-Total"))
	assert.Equal(t, "25", rec.Header().Get("X-Pagination-Page-Total"))

	assert.Equal(t, 10, backend.lastFilter.Offset)
	assert.Equal(t, 10, backend.lastFilter.Limit)
	assert.True(t, backend.lastFilter.Descending)
	assert.Equal(t, testAuthority.Bytes(), backend.lastFilter.Authority)
	require.NotNil(t, backend.lastFilter.Released)
	assert.True(t, *backend.lastFilter.Released)

	pots := decodeBody[[]PotResponse](t, rec)
	require.Len(t, pots, 1)
	assert.Equal(t, testPotAddr.String(), pots[0].Address)
	assert.Equal(t, "released", pots[0].Status)
	assert.Equal(t, "50", pots[0].TotalContributed)
	assert.InDelta(t, 1.0, pots[0].Progress, 0.0001)
	assert.True(t, pots[0].QuorumReached)
	assert.True(t, pots[0].TimeLockExpired)
	require.NotNil(t, pots[0].Recipient)
	assert.Equal(t, testBob.String(), *pots[0].Recipient)
}

func TestHandleListPotsBadRequest(t *testing.T) {
	a := newTestApi(newMockBackend())
	tests := []string{
		"/api/v0/pots?count=abc",
		"/api/v0/pots?authority=nope",
		"/api/v0/pots?status=pending",
	}
	for _, target := range tests {
		t.Run(target, func(t *testing.T) {
			rec := doRequest(t, a, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeBody[ErrorResponse](t, rec)
			assert.Equal(t, http.StatusBadRequest, body.StatusCode)
		})
	}
}

func TestHandleListPotsBackendError(t *testing.T) {
	backend := newMockBackend()
	backend.listErr = errors.New("database is closed")
	rec := doRequest(t, newTestApi(backend), "/api/v0/pots")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody[ErrorResponse](t, rec)
	assert.NotContains(t, body.Message, "database is closed")
}

func TestHandleGetPot(t *testing.T) {
	a := newTestApi(newMockBackend())

	rec := doRequest(t, a, "/api/v0/pots/"+testPotAddr.String())
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[PotResponse](t, rec)
	assert.Equal(t, "trip", resp.Name)
	assert.Equal(t, "active", resp.Status)
	assert.Equal(t, "15380", resp.Balance)
	assert.Equal(t, 1, resp.SignatureCount)
	assert.Equal(t, 3, resp.ContributorCount)
	assert.Equal(t, []string{testAlice.String()}, resp.Signatures)
	assert.True(t, resp.TimeLockExpired)
	assert.False(t, resp.QuorumReached)
	assert.Nil(t, resp.Recipient)
	assert.Nil(t, resp.ReleasedAt)

	// Hex addresses are accepted too
	rec = doRequest(t, a, "/api/v0/pots/"+testPotAddr.Hex())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleGetPotErrors(t *testing.T) {
	backend := newMockBackend()
	a := newTestApi(backend)

	rec := doRequest(t, a, "/api/v0/pots/not-an-address")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, a, "/api/v0/pots/"+testBob.String())
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, pot.ErrPotNotFound.Code, body.Code)

	backend.snapshotErr = fmt.Errorf("%w: wrong owner", pot.ErrInvalidAccount)
	rec = doRequest(t, a, "/api/v0/pots/"+testPotAddr.String())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleListContributors(t *testing.T) {
	a := newTestApi(newMockBackend())

	rec := doRequest(
		t,
		a,
		"/api/v0/pots/"+testPotAddr.String()+"/contributors?count=2",
	)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-Pagination-Count-Total"))
	assert.Equal(t, "2", rec.Header().Get("X-Pagination-Page-Total"))

	resp := decodeBody[[]ContributorResponse](t, rec)
	require.Len(t, resp, 2)
	assert.Equal(t, testAuthority.String(), resp[0].Contributor)
	assert.True(t, resp[0].IsAuthority)
	assert.Nil(t, resp[0].Account)
	assert.Equal(t, "0", resp[0].TotalContributed)
	assert.Equal(t, testAlice.String(), resp[1].Contributor)
	assert.Equal(t, "20", resp[1].TotalContributed)
	assert.Equal(t, uint32(2), resp[1].ContributionCount)
	assert.True(t, resp[1].Signed)
	require.NotNil(t, resp[1].Account)

	rec = doRequest(
		t,
		a,
		"/api/v0/pots/"+testPotAddr.String()+"/contributors?count=2&page=2",
	)
	resp = decodeBody[[]ContributorResponse](t, rec)
	require.Len(t, resp, 1)
	assert.Equal(t, testBob.String(), resp[0].Contributor)
	assert.Equal(t, 2, resp[0].Position)
}

func TestHandleGetContributor(t *testing.T) {
	a := newTestApi(newMockBackend())
	base := "/api/v0/pots/" + testPotAddr.String() + "/contributors/"

	rec := doRequest(t, a, base+testAlice.String())
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[ContributorResponse](t, rec)
	assert.Equal(t, int64(600), resp.JoinedAt)

	rec = doRequest(t, a, base+testPotAddr.String())
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, pot.ErrContributorNotFound.Code, body.Code)

	rec = doRequest(t, a, base+"zzz")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAccountEndpoints(t *testing.T) {
	backend := newMockBackend()
	backend.enrolled = []ledger.Address{testPotAddr}
	a := newTestApi(backend)

	rec := doRequest(t, a, "/api/v0/accounts/"+testAlice.String()+"/balance")
	require.Equal(t, http.StatusOK, rec.Code)
	balance := decodeBody[BalanceResponse](t, rec)
	assert.Equal(t, "980", balance.Balance)
	assert.Equal(t, testAlice.String(), balance.Address)

	// Unknown accounts have a zero balance
	rec = doRequest(t, a, "/api/v0/accounts/"+testBob.String()+"/balance")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", decodeBody[BalanceResponse](t, rec).Balance)

	rec = doRequest(t, a, "/api/v0/accounts/"+testAlice.String()+"/pots")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(
		t,
		[]string{testPotAddr.String()},
		decodeBody[[]string](t, rec),
	)
}
