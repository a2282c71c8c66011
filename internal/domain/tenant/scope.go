// Package tenant define el alcance (scope) de tenant que exige toda operación de datos.
//
// Scope es un valor opaco: solo se construye a partir de un id no vacío, y el valor cero es
// inválido. Los repositorios lo reciben como parámetro explícito y rechazan el valor cero, de
// modo que no existe una ruta de acceso a datos sin tenant resuelto.
package tenant

import (
	"strings"

	"github.com/jhoicas/pyme-stock-api/internal/domain"
)

// Scope identifica la partición de datos de un tenant resuelto.
type Scope struct {
	id string
}

// NewScope construye un Scope. Falla con ErrUnresolvedTenant si el id está vacío.
func NewScope(id string) (Scope, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Scope{}, domain.ErrUnresolvedTenant
	}
	return Scope{id: id}, nil
}

// MustScope es NewScope para ids conocidos (tests, seeds). Hace panic con id vacío.
func MustScope(id string) Scope {
	s, err := NewScope(id)
	if err != nil {
		panic(err)
	}
	return s
}

// ID devuelve el id del tenant.
func (s Scope) ID() string { return s.id }

// Valid indica si el scope proviene de un tenant resuelto.
func (s Scope) Valid() bool { return s.id != "" }

// Check devuelve ErrUnresolvedTenant si el scope es el valor cero.
func (s Scope) Check() error {
	if !s.Valid() {
		return domain.ErrUnresolvedTenant
	}
	return nil
}

// Owns indica si un recurso con el tenantID dado pertenece a este scope.
func (s Scope) Owns(tenantID string) bool {
	return s.Valid() && s.id == tenantID
}

func (s Scope) String() string { return s.id }
