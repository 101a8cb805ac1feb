package cache

import "errors"

var errInvalidSize = errors.New("cache: must provide a positive size")
