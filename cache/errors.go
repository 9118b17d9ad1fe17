package cache

// ErrNotFound is returned by Fetch when the key is absent.
var ErrNotFound = errorsNew("cache: key not found")

// ErrNoLoader is returned by Loading.GetOrLoad when no loader was provided.
var ErrNoLoader = errorsNew("cache: no loader provided")

// lightweight local errors.New to avoid importing std 'errors' everywhere
func errorsNew(s string) error { return &strErr{s} }

type strErr struct{ s string }

func (e *strErr) Error() string { return e.s }
