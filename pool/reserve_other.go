//go:build !unix

package pool

import "github.com/cockroachdb/errors"

func reserve(size int) ([]byte, error) {
	return nil, errors.Newf("cannot reserve %d bytes: block pools are only supported on unix platforms", size)
}

func unreserve(data []byte) error {
	return nil
}
