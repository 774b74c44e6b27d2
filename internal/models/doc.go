// Package models defines the core domain models for Finova.
//
// # Models
//
//   - User: a person known to the external identity provider
//   - Account: a bank or credit account owned by one user
//   - Transaction: an income or expense recorded against one account
//   - Budget: a monthly spending budget for one user
//
// # Design Principles
//
//  1. Monetary values are decimal.Decimal everywhere inside the service.
//     They are converted to plain numbers only when leaving it (see package views).
//  2. Relationships are ID strings, never pointers.
//  3. Every row carries the owning user's ID so queries can be tenant-scoped.
package models
