// internal/domain/customer/repository.go
package customer

import "context"

// Storage is the durable key-value mirror of the roster. Implementations
// report a missing key with found == false and a nil error.
type Storage interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}
