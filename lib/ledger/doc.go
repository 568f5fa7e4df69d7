// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package ledger assembles a complete trustmesh ledger from
// configuration: the substrate, the event log with its sinks, and
// the three registries wired over them.
//
// [Open] is the embedding surface. It gives all three registries one
// substrate, so the identity registry's quota consumption and the
// reputation ledger's minting commit in a single transaction, and one
// event log, so the chain stays totally ordered across components.
// On reopen the chain resumes from the most advanced durable sink.
package ledger
