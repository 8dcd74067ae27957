package client

import (
	"errors"
	"fmt"

	"fosscord/pkg/snowflake"
)

// ErrInvalidResolvable is returned when an argument names no known record and
// is not a valid id.
var ErrInvalidResolvable = errors.New("invalid resolvable")

func invalidResolvable(kind string) error {
	return fmt.Errorf("%w: expected %s", ErrInvalidResolvable, kind)
}

// FetchOptions controls a pull. Cache stores the result; Force skips the
// cache lookup.
type FetchOptions struct {
	Cache bool
	Force bool
}

type FetchOption func(*FetchOptions)

func WithCache(cache bool) FetchOption {
	return func(o *FetchOptions) { o.Cache = cache }
}

func WithForce(force bool) FetchOption {
	return func(o *FetchOptions) { o.Force = force }
}

func fetchOptions(opts []FetchOption) FetchOptions {
	o := FetchOptions{Cache: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// rawID turns an id or decimal id string into an ID; anything else is 0.
func rawID(r any) snowflake.ID {
	switch v := r.(type) {
	case snowflake.ID:
		return v
	case string:
		id, err := snowflake.Parse(v)
		if err != nil {
			return 0
		}
		return id
	case uint64:
		return snowflake.ID(v)
	default:
		return 0
	}
}
