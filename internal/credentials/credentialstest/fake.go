// Package credentialstest provides a scriptable credentials.Provider.
package credentialstest

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/booksummary/internal/credentials"
)

// Call records one provider invocation.
type Call struct {
	Method   string
	Email    string
	Password string
	Name     string
	Identity credentials.Identity
}

// Fake is a credentials.Provider whose results are set by the test. When
// Gate is non-nil every call blocks until Gate is closed or ctx is done.
type Fake struct {
	mu sync.Mutex

	CreateErr     error
	SignInErr     error
	ResetErr      error
	UpdateNameErr error
	Identity      credentials.Identity
	Gate          chan struct{}

	calls []Call
}

var _ credentials.Provider = (*Fake)(nil)

func (f *Fake) CreateAccount(ctx context.Context, email, password string) (credentials.Identity, error) {
	f.record(Call{Method: "CreateAccount", Email: email, Password: password})
	if err := f.wait(ctx); err != nil {
		return credentials.Identity{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return credentials.Identity{}, f.CreateErr
	}
	id := f.Identity
	id.Email = email
	return id, nil
}

func (f *Fake) SignIn(ctx context.Context, email, password string) (credentials.Identity, error) {
	f.record(Call{Method: "SignIn", Email: email, Password: password})
	if err := f.wait(ctx); err != nil {
		return credentials.Identity{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SignInErr != nil {
		return credentials.Identity{}, f.SignInErr
	}
	id := f.Identity
	id.Email = email
	return id, nil
}

func (f *Fake) SendPasswordReset(ctx context.Context, email string) error {
	f.record(Call{Method: "SendPasswordReset", Email: email})
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ResetErr
}

func (f *Fake) UpdateDisplayName(ctx context.Context, id credentials.Identity, name string) error {
	f.record(Call{Method: "UpdateDisplayName", Name: name, Identity: id})
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.UpdateNameErr
}

// Calls returns a copy of the recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo counts calls to method.
func (f *Fake) CallsTo(method string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (f *Fake) record(c Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *Fake) wait(ctx context.Context) error {
	f.mu.Lock()
	gate := f.Gate
	f.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
