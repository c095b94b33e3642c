package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	"reconciler/pkg/platform/sentinel"
)

// Classify wraps a driver error with the sentinel the service acts on:
// ErrConflict for lost serializable races, ErrUnavailable for connectivity
// failures and timeouts. Other errors are wrapped unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if s := sentinelFor(err); s != nil {
		return fmt.Errorf("%s: %w: %w", op, s, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func sentinelFor(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01", "23505":
			// serialization_failure, deadlock_detected, unique_violation
			return sentinel.ErrConflict
		case "57P01", "57P02", "57P03", "53300":
			// admin/crash shutdown, cannot_connect_now, too_many_connections
			return sentinel.ErrUnavailable
		}
		if pqErr.Code.Class() == "08" {
			return sentinel.ErrUnavailable
		}
		return nil
	}

	var netErr net.Error
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr):
		return sentinel.ErrUnavailable
	}
	return nil
}
