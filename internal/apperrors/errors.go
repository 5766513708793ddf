package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnbalancedTransaction indicates a transaction whose debits and credits do not match.
// The transaction is rejected before any state change.
var ErrUnbalancedTransaction = errors.New("transaction debits do not equal credits")

// ErrInvalidPrice indicates a selling price below the product's base cost.
var ErrInvalidPrice = errors.New("invalid price")

// ErrInvalidQuantity indicates a non-positive quantity on a purchase request.
var ErrInvalidQuantity = errors.New("invalid quantity")

// ErrEventNotFoundOrExpired indicates a decision event that does not exist or
// has already been resolved.
var ErrEventNotFoundOrExpired = errors.New("event not found or already resolved")

// ErrConcurrentTurn indicates that a turn is already being processed for this
// game session. The caller should retry once the running turn completes.
var ErrConcurrentTurn = errors.New("turn already in progress")

// ErrGameLogic indicates an invariant violation during turn processing. The
// whole turn has been rolled back; no partial effects are visible.
var ErrGameLogic = errors.New("game logic failure")
