// Package storage define los errores comunes a todos los adaptadores de persistencia.
// Los servicios traducen solo estos sentinels; cualquier otro error del store se propaga envuelto.
package storage

import "errors"

var ErrNotFound = errors.New("not found")
