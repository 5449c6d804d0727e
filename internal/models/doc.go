// Package models defines the domain model for the finpal settlement ledger.
//
// # Entities
//
//   - Split: one division of a shared expense among participants
//   - Participant: one member's owed share within a split, keyed by user ID
//   - SettlementRequest: a debtor's claim that an out-of-band payment was
//     made, awaiting the creditor's approval
//   - WalletTransaction: an immutable record of a completed funds movement
//   - User: an account with per-currency wallet balances
//
// # Design Principles
//
//  1. Every entity carries a Validate method; mutating operations in the
//     engine, wallet, and settlement packages call it before touching
//     storage; caller-supplied records are never trusted.
//  2. Amounts are decimal.Decimal, rounded to two places at the boundary.
//     Two amounts reconcile when they differ by at most 0.01.
//  3. Split.Status is derived from participant state and never set
//     independently of it.
//  4. The two settlement paths are a sealed SettlementMethod variant, so
//     callers cannot invent a third path by passing an unknown string.
package models
