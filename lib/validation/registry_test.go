// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/trustmesh-foundation/trustmesh/lib/clock"
	"github.com/trustmesh-foundation/trustmesh/lib/digest"
	"github.com/trustmesh-foundation/trustmesh/lib/event"
	"github.com/trustmesh-foundation/trustmesh/lib/substrate"
	"github.com/trustmesh-foundation/trustmesh/lib/testutil"
)

var (
	agentAddr     = testutil.Address(1)
	validatorAddr = testutil.Address(2)
	requesterAddr = testutil.Address(3)
)

type validationFixture struct {
	registry *Registry
	clock    *clock.FakeClock
	sink     *event.MemorySink
}

func newValidationFixture(t *testing.T) *validationFixture {
	t.Helper()
	store := substrate.Memory()
	t.Cleanup(func() { store.Close() })
	clk := clock.Fake(time.Unix(1_700_000_000, 0))
	sink := event.NewMemorySink()
	return &validationFixture{
		registry: NewRegistry(store, clk, event.NewLog(nil, sink)),
		clock:    clk,
		sink:     sink,
	}
}

func (f *validationFixture) request(t *testing.T, ttl int64) digest.Digest {
	t.Helper()
	id, err := f.registry.RequestValidation(context.Background(),
		requesterAddr, agentAddr, validatorAddr, digest.SumString("data"), ttl)
	if err != nil {
		t.Fatalf("RequestValidation: %v", err)
	}
	return id
}

func TestRequestValidation(t *testing.T) {
	f := newValidationFixture(t)
	ctx := context.Background()

	id := f.request(t, 3600)
	if id.IsZero() {
		t.Fatalf("zero request identifier")
	}

	pending, err := f.registry.IsPending(ctx, id)
	if err != nil || !pending {
		t.Fatalf("IsPending: pending=%v err=%v", pending, err)
	}
	info, err := f.registry.GetPendingInfo(ctx, id)
	if err != nil {
		t.Fatalf("GetPendingInfo: %v", err)
	}
	if info.Agent != agentAddr || info.Validator != validatorAddr {
		t.Errorf("pending parties = %s/%s", info.Agent, info.Validator)
	}
	if info.CreatedAt != f.clock.Unix() || info.TTL != 3600 {
		t.Errorf("pending timing = %+v", info)
	}

	records := f.sink.Records()
	if len(records) != 1 || records[0].Type != event.TypeValidationRequested {
		t.Fatalf("events = %v", records)
	}
	payload, err := event.Decode(records[0])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	requested := payload.(*event.ValidationRequested)
	if requested.Request != id || requested.Requester != requesterAddr {
		t.Errorf("event payload = %+v", requested)
	}
	if requested.ExpiresAt != f.clock.Unix()+3600 {
		t.Errorf("ExpiresAt = %d", requested.ExpiresAt)
	}
}

func TestRequestValidationTTLBounds(t *testing.T) {
	f := newValidationFixture(t)
	ctx := context.Background()

	for _, ttl := range []int64{0, -1, maxTTL + 1} {
		_, err := f.registry.RequestValidation(ctx, requesterAddr, agentAddr, validatorAddr, digest.SumString("data"), ttl)
		if !errors.Is(err, ErrInvalidTTL) {
			t.Errorf("ttl %d: err = %v, want ErrInvalidTTL", ttl, err)
		}
	}
	if len(f.sink.Records()) != 0 {
		t.Errorf("rejected requests emitted events")
	}

	// The boundary value is accepted.
	if _, err := f.registry.RequestValidation(ctx, requesterAddr, agentAddr, validatorAddr, digest.SumString("data"), maxTTL); err != nil {
		t.Errorf("ttl %d: %v", maxTTL, err)
	}
}

func TestRequestExists(t *testing.T) {
	f := newValidationFixture(t)
	ctx := context.Background()

	f.request(t, 3600)
	_, err := f.registry.RequestValidation(ctx, requesterAddr, agentAddr, validatorAddr, digest.SumString("data"), 3600)
	if !errors.Is(err, ErrRequestExists) {
		t.Fatalf("same-second duplicate: err = %v, want ErrRequestExists", err)
	}

	// A later timestamp derives a fresh identifier.
	f.clock.Advance(time.Second)
	if _, err := f.registry.RequestValidation(ctx, requesterAddr, agentAddr, validatorAddr, digest.SumString("data"), 3600); err != nil {
		t.Fatalf("next-second request: %v", err)
	}
}

func TestRespondValidation(t *testing.T) {
	f := newValidationFixture(t)
	ctx := context.Background()
	id := f.request(t, 3600)

	f.clock.Advance(10 * time.Second)
	if err := f.registry.RespondValidation(ctx, validatorAddr, id, 92, "ipfs://resp", digest.SumString("resp")); err != nil {
		t.Fatalf("RespondValidation: %v", err)
	}

	if pending, _ := f.registry.IsPending(ctx, id); pending {
		t.Errorf("completed request still pending")
	}
	if _, err := f.registry.GetPendingInfo(ctx, id); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("GetPendingInfo after completion: %v", err)
	}

	status, err := f.registry.GetStatus(ctx, id)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.Agent != agentAddr || status.Validator != validatorAddr {
		t.Errorf("status parties = %s/%s", status.Agent, status.Validator)
	}
	if status.Score != 92 || status.RespondedAt != f.clock.Unix() {
		t.Errorf("status = %+v", status)
	}

	// The transition is terminal.
	if err := f.registry.RespondValidation(ctx, validatorAddr, id, 50, "", digest.Digest{}); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("second response: err = %v, want ErrRequestNotFound", err)
	}

	records := f.sink.Records()
	last := records[len(records)-1]
	if last.Type != event.TypeValidationResponded {
		t.Fatalf("event type = %q", last.Type)
	}
	payload, err := event.Decode(last)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if responded := payload.(*event.ValidationResponded); responded.Request != id || responded.Score != 92 {
		t.Errorf("event payload = %+v", responded)
	}
}

func TestRespondValidationRejections(t *testing.T) {
	f := newValidationFixture(t)
	ctx := context.Background()
	id := f.request(t, 3600)

	if err := f.registry.RespondValidation(ctx, validatorAddr, id, 101, "", digest.Digest{}); !errors.Is(err, ErrResponseOutOfRange) {
		t.Errorf("score 101: err = %v, want ErrResponseOutOfRange", err)
	}
	if err := f.registry.RespondValidation(ctx, validatorAddr, digest.SumString("other"), 50, "", digest.Digest{}); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("unknown id: err = %v, want ErrRequestNotFound", err)
	}
	if err := f.registry.RespondValidation(ctx, requesterAddr, id, 50, "", digest.Digest{}); !errors.Is(err, ErrNotValidator) {
		t.Errorf("wrong responder: err = %v, want ErrNotValidator", err)
	}

	if pending, _ := f.registry.IsPending(ctx, id); !pending {
		t.Errorf("rejected responses cleared the pending entry")
	}
}

func TestRespondValidationAtDeadline(t *testing.T) {
	f := newValidationFixture(t)
	ctx := context.Background()
	id := f.request(t, 3600)

	// The deadline itself is inclusive.
	f.clock.Advance(3600 * time.Second)
	if err := f.registry.RespondValidation(ctx, validatorAddr, id, 50, "", digest.Digest{}); err != nil {
		t.Fatalf("response at deadline: %v", err)
	}
}

func TestExpiredRequestStaysPending(t *testing.T) {
	f := newValidationFixture(t)
	ctx := context.Background()
	id := f.request(t, 3600)

	f.clock.Advance(3601 * time.Second)
	err := f.registry.RespondValidation(ctx, validatorAddr, id, 50, "", digest.Digest{})
	if !errors.Is(err, ErrRequestExpired) {
		t.Fatalf("late response: err = %v, want ErrRequestExpired", err)
	}

	pending, err := f.registry.IsPending(ctx, id)
	if err != nil || !pending {
		t.Fatalf("expired request cleared: pending=%v err=%v", pending, err)
	}
	if _, err := f.registry.GetStatus(ctx, id); !errors.Is(err, ErrValidationNotFound) {
		t.Errorf("GetStatus on expired pending: err = %v, want ErrValidationNotFound", err)
	}
	if _, err := f.registry.GetPendingInfo(ctx, id); err != nil {
		t.Errorf("GetPendingInfo on expired pending: %v", err)
	}
}

func TestCompletedIdentifierBlocksReuse(t *testing.T) {
	f := newValidationFixture(t)
	ctx := context.Background()
	id := f.request(t, 3600)

	if err := f.registry.RespondValidation(ctx, validatorAddr, id, 50, "", digest.Digest{}); err != nil {
		t.Fatalf("RespondValidation: %v", err)
	}

	// Same quadruple in the same second derives the completed
	// identifier again.
	_, err := f.registry.RequestValidation(ctx, requesterAddr, agentAddr, validatorAddr, digest.SumString("data"), 3600)
	if !errors.Is(err, ErrRequestExists) {
		t.Fatalf("reusing completed id: err = %v, want ErrRequestExists", err)
	}
}
