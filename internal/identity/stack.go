package identity

import (
	"context"
	"sync"

	"github.com/noah-isme/gema-activity-api/internal/models"
)

// Stack is the ambient acting identity of one aggregation branch. Concurrent
// branches must each own a Stack; pushes from one branch would otherwise
// interleave with another.
type Stack struct {
	mu     sync.Mutex
	frames []models.User
}

// NewStack returns a stack whose base frame is base.
func NewStack(base models.User) *Stack {
	return &Stack{frames: []models.User{base}}
}

// Current returns the acting identity, or false when the stack is empty.
func (s *Stack) Current() (models.User, bool) {
	if s == nil {
		return models.User{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return models.User{}, false
	}
	return s.frames[len(s.frames)-1], true
}

// Depth reports the number of frames, base frame included.
func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// Impersonate runs fn with user as the acting identity. The previous identity
// is restored when fn returns, fails or panics. Calls may nest.
func (s *Stack) Impersonate(user models.User, fn func() error) error {
	s.push(user)
	defer s.pop()
	return fn()
}

func (s *Stack) push(user models.User) {
	s.mu.Lock()
	s.frames = append(s.frames, user)
	s.mu.Unlock()
}

func (s *Stack) pop() {
	s.mu.Lock()
	if len(s.frames) > 0 {
		s.frames = s.frames[:len(s.frames)-1]
	}
	s.mu.Unlock()
}

type stackKey struct{}

// WithStack attaches stack to ctx.
func WithStack(ctx context.Context, stack *Stack) context.Context {
	return context.WithValue(ctx, stackKey{}, stack)
}

// StackFrom returns the stack attached to ctx, or nil.
func StackFrom(ctx context.Context) *Stack {
	if ctx == nil {
		return nil
	}
	stack, _ := ctx.Value(stackKey{}).(*Stack)
	return stack
}
