// Package either provides a two-variant result type used by use cases to return typed failures
// without panics. Left carries the failure, Right the success payload.
package either

// Either holds exactly one of a Left (failure) or a Right (success) value.
// The zero value is a Left holding the zero L.
type Either[L, R any] struct {
	left    L
	right   R
	isRight bool
}

// Left returns an Either holding the failure v.
func Left[L, R any](v L) Either[L, R] {
	return Either[L, R]{left: v}
}

// Right returns an Either holding the success v.
func Right[L, R any](v R) Either[L, R] {
	return Either[L, R]{right: v, isRight: true}
}

// IsLeft reports whether e holds a failure.
func (e Either[L, R]) IsLeft() bool { return !e.isRight }

// IsRight reports whether e holds a success.
func (e Either[L, R]) IsRight() bool { return e.isRight }

// Value returns whichever variant is held. Callers narrow with IsLeft/IsRight first.
func (e Either[L, R]) Value() any {
	if e.isRight {
		return e.right
	}
	return e.left
}

// LeftValue returns the failure, or the zero L when e is a Right.
func (e Either[L, R]) LeftValue() L { return e.left }

// RightValue returns the success, or the zero R when e is a Left.
func (e Either[L, R]) RightValue() R { return e.right }

// Match calls exactly one of onLeft or onRight and returns its result.
func Match[L, R, T any](e Either[L, R], onLeft func(L) T, onRight func(R) T) T {
	if e.isRight {
		return onRight(e.right)
	}
	return onLeft(e.left)
}

// FromResult converts a Go (value, error) pair: a non-nil err becomes a Left.
func FromResult[R any](v R, err error) Either[error, R] {
	if err != nil {
		return Left[error, R](err)
	}
	return Right[error](v)
}

// Unwrap converts back to a Go (value, error) pair.
func Unwrap[R any](e Either[error, R]) (R, error) {
	if e.isRight {
		return e.right, nil
	}
	var zero R
	return zero, e.left
}
