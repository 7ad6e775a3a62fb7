package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrContention is returned when the client balance row is locked by a
	// concurrent ledger operation. Callers may retry.
	ErrContention = errors.New("balance locked by a concurrent operation, retry")

	// ErrShipmentInTour rejects updates and deletes of tour-assigned shipments.
	ErrShipmentInTour = errors.New("shipment is assigned to a delivery tour")
)

// ValidationError reports a malformed or missing field. Caller's fault.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConflictError reports shipments that cannot be invoiced, with the offending
// ids so the caller can correct the request and retry.
type ConflictError struct {
	Reason      string
	ShipmentIDs []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.ShipmentIDs, ", "))
}

// isLockNotAvailable matches the postgres error raised by FOR UPDATE NOWAIT
// when the row is held by another transaction (SQLSTATE 55P03).
func isLockNotAvailable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "55P03"
}
