package tx

import "context"

// MockManager is a test implementation of Manager.
// It runs the function directly without any database transaction, and can
// optionally inject a failure after fn succeeds to simulate a commit error.
type MockManager struct {
	// CommitErr, when set, is returned after fn runs successfully.
	CommitErr error
}

// RunInTransaction implements Manager.
func (m *MockManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	return m.CommitErr
}

// ReadOnly implements ReadOnlyManager.
func (m *MockManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ ReadOnlyManager = (*MockManager)(nil)
