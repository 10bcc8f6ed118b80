// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

// Package analytics contains the business-analytics domain: workflows,
// generated reports, and the assistant chat history.
//
// # Domain Types
//
//   - Workflow: a user-owned business process with ordered steps
//   - Report: a generated analysis with summary, insights, and recommendations
//   - ChatMessage: one turn of the assistant conversation
//
// Persistence is abstracted behind per-entity repository interfaces; the
// postgres subpackage implements them.
package analytics
