// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the ledger assembly configuration.
//
// Configuration comes from a single JSONC file named by the
// TRUSTMESH_CONFIG environment variable or an explicit path. There
// are no fallbacks, no discovery, and no environment-variable
// overrides of individual values; the file is the whole truth.
package config
