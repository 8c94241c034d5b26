// Package models defines the core domain models for fintrack.
//
// # Models
//
//   - User: an authenticated person; created on first sight by the identity adapter
//   - Friendship: read-only view of the friend graph maintained elsewhere
//   - Account: a ledger that owns a balance, a minimum balance floor and a monthly budget
//   - Transaction: a signed monetary entry against exactly one Account
//   - SplitRequest / SplitParticipant: a shared expense divided among friends
//
// # Design Principles
//
// 1. **Amounts are always positive**: the sign of a Transaction derives from its Type
// 2. **Decimal money**: all monetary fields use decimal.Decimal, never float64
// 3. **Avoid circular references**: relationships are expressed with ID strings
// 4. **Explicit links**: split requests and participants reference the ledger
// entries they produced by ID, never by matching descriptions
package models
