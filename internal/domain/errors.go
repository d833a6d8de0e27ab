package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
	ErrSelfParent   = errors.New("una categoría no puede ser su propio padre")
	ErrCycle        = errors.New("el nuevo padre es descendiente de la categoría movida")
	ErrHasChildren  = errors.New("la categoría tiene subcategorías")
	ErrMoveInFlight = errors.New("ya hay un movimiento en curso para esta categoría")
)
