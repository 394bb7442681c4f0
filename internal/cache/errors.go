package cache

import "errors"

var errMetaMissing = errors.New("cache entry missing meta")
