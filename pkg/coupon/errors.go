package coupon

import "errors"

var (
	ErrEmptyCode       = errors.New("coupon code cannot be empty")
	ErrApplyInProgress = errors.New("a coupon apply request is already in flight")
)
