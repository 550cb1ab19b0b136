// Package store wraps the shared realtime ledger used by the parking
// components. Records are addressed by slash-separated paths; reads are
// eventually consistent and concurrent writes are last-write-wins, both owned
// by the backing database.
package store

import "context"

// Top-level paths of the ledger.
const (
	PathBookings        = "bookings"
	PathParkingSlots    = "parkingSlots"
	PathPendingPayments = "pendingPayments"
	PathPayments        = "payments"
	PathActiveVehicles  = "activeVehicles"
	PathDetectedPlates  = "detectedPlates"
	PathSystem          = "system"
)

type Store interface {
	// Get decodes the record at path into v. An absent path decodes as JSON
	// null and leaves v at its zero value; it is not an error.
	Get(ctx context.Context, path string, v any) error
	// Set replaces the record at path.
	Set(ctx context.Context, path string, v any) error
	// Update merges the given fields into the record at path.
	Update(ctx context.Context, path string, fields map[string]any) error
	// Delete removes the record at path. Deleting an absent path is a no-op.
	Delete(ctx context.Context, path string) error
}
