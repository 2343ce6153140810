package block

import "errors"

// ErrContract marks a violation of the block execution contract:
// consuming or producing more items than the invocation supplied,
// malformed signatures, lifecycle calls out of order. Contract
// violations are fatal to the offending block's run and are never
// retried.
var ErrContract = errors.New("block: contract violation")
