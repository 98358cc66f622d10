package handler

import "errors"

var errInsufficientInventory = errors.New("insufficient inventory")
