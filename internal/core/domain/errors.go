// internal/core/domain/errors.go
package domain

import "fmt"

// OutOfStockError signals that the SKU is recognized but no candidate batch
// has enough available quantity to cover the requested line. It is a
// business rejection, not a fault: transports map it to a client error.
type OutOfStockError struct {
	SKU string
}

func (e OutOfStockError) Error() string {
	return fmt.Sprintf("out of stock for sku %s", e.SKU)
}

// InvalidSKUError signals that the requested SKU has no corresponding batch
// at all in the candidate set, i.e. inventory does not recognize it.
type InvalidSKUError struct {
	SKU string
}

func (e InvalidSKUError) Error() string {
	return fmt.Sprintf("invalid sku %s", e.SKU)
}
