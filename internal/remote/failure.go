package remote

import "errors"

// ErrNotFound is matched by the errors a remote returns for an entity it does
// not hold.
var ErrNotFound = errors.New("not found")

// Failure is a rejected remote call. Message is meant for the user.
type Failure struct {
	Op      string
	Message string
	Err     error
}

func (f *Failure) Error() string {
	return f.Op + ": " + f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Fail wraps err as a failure of op. It returns nil for a nil err and leaves
// an existing Failure unchanged.
func Fail(op string, err error) error {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return err
	}
	return &Failure{Op: op, Message: err.Error(), Err: err}
}

// IsFailure reports whether err came from a rejected remote call.
func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}
