package commands_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"royalties/contexts/finance-core/royalty-engine/adapters/memory"
	"royalties/contexts/finance-core/royalty-engine/application/commands"
	"royalties/contexts/finance-core/royalty-engine/domain/entities"
	"royalties/contexts/finance-core/royalty-engine/ports"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *memory.Store
	clock    *clockwork.FakeClock
	metrics  *recordingMetrics
	gateway  *fakeGateway
	register commands.RegisterTrackUseCase
	update   commands.UpdateTrackUseCase
	remove   commands.DeleteTrackUseCase
	addSplit commands.AddSplitUseCase
	setSplit commands.UpdateSplitUseCase
	delSplit commands.RemoveSplitUseCase
	record   commands.RecordStreamsUseCase
	fixed    commands.DistributeFixedUseCase
	streams  commands.DistributeFromStreamsUseCase
	withdraw commands.WithdrawUseCase
	confirm  commands.ConfirmPayoutUseCase
	link     commands.LinkWalletAddressUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	metrics := &recordingMetrics{}
	gateway := &fakeGateway{}
	fee := decimal.RequireFromString("2.00")
	return &fixture{
		t:        t,
		ctx:      context.Background(),
		store:    store,
		clock:    clock,
		metrics:  metrics,
		gateway:  gateway,
		register: commands.RegisterTrackUseCase{Ledger: store, Clock: clock, IDGenerator: store},
		update:   commands.UpdateTrackUseCase{Ledger: store, Clock: clock, IDGenerator: store},
		remove:   commands.DeleteTrackUseCase{Ledger: store, Clock: clock, IDGenerator: store},
		addSplit: commands.AddSplitUseCase{Ledger: store, Clock: clock, IDGenerator: store},
		setSplit: commands.UpdateSplitUseCase{Ledger: store, Clock: clock, IDGenerator: store},
		delSplit: commands.RemoveSplitUseCase{Ledger: store, Clock: clock, IDGenerator: store},
		record:   commands.RecordStreamsUseCase{Ledger: store, Clock: clock, IDGenerator: store},
		fixed: commands.DistributeFixedUseCase{
			Ledger:             store,
			Clock:              clock,
			IDGenerator:        store,
			PlatformFeePercent: fee,
			Metrics:            metrics,
		},
		streams: commands.DistributeFromStreamsUseCase{
			Ledger:               store,
			Clock:                clock,
			IDGenerator:          store,
			PlatformFeePercent:   fee,
			DefaultRatePerStream: decimal.RequireFromString("0.003"),
			Metrics:              metrics,
		},
		withdraw: commands.WithdrawUseCase{
			Ledger:      store,
			Transfers:   gateway,
			Clock:       clock,
			IDGenerator: store,
			Metrics:     metrics,
		},
		confirm: commands.ConfirmPayoutUseCase{Ledger: store, Clock: clock},
		link:    commands.LinkWalletAddressUseCase{Ledger: store, Clock: clock, IDGenerator: store},
	}
}

func (f *fixture) track(payout string, splits map[string]string) string {
	f.t.Helper()
	track, err := f.register.Execute(f.ctx, commands.RegisterTrackCommand{
		OwnerID:         "owner-1",
		Title:           "Night Drive",
		DurationSeconds: 215,
		Genre:           "pop",
		PayoutAmount:    decimal.RequireFromString(payout),
	})
	require.NoError(f.t, err)
	for user, pct := range splits {
		_, err := f.addSplit.Execute(f.ctx, commands.AddSplitCommand{
			TrackID:    track.TrackID,
			UserID:     user,
			Percentage: decimal.RequireFromString(pct),
		})
		require.NoError(f.t, err)
	}
	return track.TrackID
}

func (f *fixture) wallet(userID string) entities.Wallet {
	f.t.Helper()
	wallet, err := f.store.GetWalletByUser(f.ctx, userID)
	require.NoError(f.t, err)
	return wallet
}

func (f *fixture) payouts(walletID string) map[string]entities.Payout {
	f.t.Helper()
	items, err := f.store.ListPayouts(f.ctx, walletID)
	require.NoError(f.t, err)
	out := make(map[string]entities.Payout, len(items))
	for _, item := range items {
		out[item.PayoutID] = item
	}
	return out
}

func (f *fixture) outboxOf(eventType string) []ports.EventEnvelope {
	f.t.Helper()
	messages, err := f.store.ListPendingOutbox(f.ctx, 1000)
	require.NoError(f.t, err)
	var out []ports.EventEnvelope
	for _, message := range messages {
		if message.EventType != eventType {
			continue
		}
		var envelope ports.EventEnvelope
		require.NoError(f.t, json.Unmarshal(message.Payload, &envelope))
		out = append(out, envelope)
	}
	return out
}

var standardSplits = map[string]string{
	"artist-a": "50.00",
	"artist-b": "30.00",
	"artist-c": "20.00",
}

type observation struct {
	kind    string
	mode    string
	outcome string
}

type recordingMetrics struct {
	mu    sync.Mutex
	calls []observation
}

func (m *recordingMetrics) ObserveDistribution(mode string, outcome string, _ decimal.Decimal, _ int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, observation{kind: "distribution", mode: mode, outcome: outcome})
}

func (m *recordingMetrics) ObserveWithdrawal(outcome string, _ string, _ decimal.Decimal, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, observation{kind: "withdrawal", outcome: outcome})
}

func (m *recordingMetrics) last() observation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return observation{}
	}
	return m.calls[len(m.calls)-1]
}

type fakeGateway struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (g *fakeGateway) Transfer(_ context.Context, address string, amount decimal.Decimal) (ports.TransferResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return ports.TransferResult{}, g.err
	}
	return ports.TransferResult{
		Status:        ports.TransferStatusSuccess,
		WalletAddress: address,
		Amount:        amount,
		TransactionID: "0xfeed",
	}, nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// failingIDs hands out a fixed number of ids and then fails, simulating a
// crash partway through a transaction.
type failingIDs struct {
	next      ports.IDGenerator
	remaining int
}

func (g *failingIDs) NewID(ctx context.Context) (string, error) {
	if g.remaining <= 0 {
		return "", errIDsExhausted
	}
	g.remaining--
	return g.next.NewID(ctx)
}

var (
	errGatewayDown  = errors.New("rpc unavailable")
	errIDsExhausted = errors.New("id generator exhausted")
)
