package postgres

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/pyme-stock-api/internal/domain"
	"github.com/jhoicas/pyme-stock-api/internal/domain/tenant"
)

// Códigos SQLSTATE que el dominio distingue.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// isContention errores transitorios: serialización, deadlock o lock_timeout.
func isContention(err error) bool {
	switch pgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return true
	}
	return false
}

// mapError traduce errores del driver a errores de dominio.
func mapError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicate)
	case isContention(err):
		return domain.Contention(fmt.Errorf("%s: %w", op, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

// validID los ids son UUID; un id mal formado no puede existir.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ownedBy compara el tenant de una fila con el scope.
func ownedBy(scope tenant.Scope, tenantID string) error {
	if err := scope.Check(); err != nil {
		return err
	}
	if !scope.Owns(tenantID) {
		return domain.ErrTenantMismatch
	}
	return nil
}
