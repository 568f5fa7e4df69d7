// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package reputation

import (
	"context"
	"errors"

	"github.com/trustmesh-foundation/trustmesh/lib/codec"
	"github.com/trustmesh-foundation/trustmesh/lib/event"
	"github.com/trustmesh-foundation/trustmesh/lib/ref"
	"github.com/trustmesh-foundation/trustmesh/lib/substrate"
)

// GrantIssuerCapability adds issuer to the issuer-capability set.
// Admin only; granting an issuer that is already present fails with
// ErrCapabilityExists.
func (l *Ledger) GrantIssuerCapability(ctx context.Context, caller, issuer ref.Address) error {
	return l.store.Update(ctx, func(txn substrate.Txn) error {
		if err := requireAdmin(txn, caller); err != nil {
			return err
		}
		ok, err := hasIssuer(txn, issuer)
		if err != nil {
			return err
		}
		if ok {
			return ErrCapabilityExists
		}
		return txn.Put(issuerKey(issuer), []byte{1})
	})
}

// RevokeIssuerCapability removes issuer from the issuer-capability
// set. Admin only; revoking an absent issuer is a no-op.
func (l *Ledger) RevokeIssuerCapability(ctx context.Context, caller, issuer ref.Address) error {
	return l.store.Update(ctx, func(txn substrate.Txn) error {
		if err := requireAdmin(txn, caller); err != nil {
			return err
		}
		return txn.Delete(issuerKey(issuer))
	})
}

// TransferGovernance replaces the admin unconditionally. The new
// admin is an opaque address; handing governance to an unreachable
// address is the outgoing admin's mistake to avoid.
func (l *Ledger) TransferGovernance(ctx context.Context, caller, newAdmin ref.Address) error {
	if newAdmin.IsZero() {
		return errors.New("reputation: new admin address is required")
	}
	now := l.clock.Unix()
	err := l.store.Update(ctx, func(txn substrate.Txn) error {
		if err := requireAdmin(txn, caller); err != nil {
			return err
		}
		encoded, err := codec.Marshal(newAdmin)
		if err != nil {
			return err
		}
		return txn.Put(adminKey, encoded)
	})
	if err != nil {
		return err
	}

	l.log.Append(ctx, event.TypeGovernanceTransferred, now, event.GovernanceTransferred{
		PreviousAdmin: caller,
		NewAdmin:      newAdmin,
	})
	return nil
}

// HasIssuerCapability reports membership in the issuer-capability
// set.
func (l *Ledger) HasIssuerCapability(ctx context.Context, issuer ref.Address) (bool, error) {
	var ok bool
	err := l.store.View(ctx, func(txn substrate.ReadTxn) error {
		var err error
		ok, err = hasIssuer(txn, issuer)
		return err
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Admin returns the current governance admin.
func (l *Ledger) Admin(ctx context.Context) (ref.Address, error) {
	var admin ref.Address
	err := l.store.View(ctx, func(txn substrate.ReadTxn) error {
		var err error
		admin, err = getAdmin(txn)
		return err
	})
	if err != nil {
		return ref.Address{}, err
	}
	return admin, nil
}

// requireAdmin fails with ErrNotAdmin unless caller is the stored
// governance admin.
func requireAdmin(txn substrate.ReadTxn, caller ref.Address) error {
	admin, err := getAdmin(txn)
	if err != nil {
		return err
	}
	if admin != caller {
		return ErrNotAdmin
	}
	return nil
}
