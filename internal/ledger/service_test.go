package ledger

import (
	"context"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/require"
)

func TestService_HandleEvent_UnknownEventType(t *testing.T) {
	svc := &service{
		logger:     log.NewNopLogger(),
		userDao:    &userDao{},
		booksDao:   &userBooksDao{},
		sessionDao: &sessionDao{},
	}

	reply := svc.HandleEvent(context.Background(), EventPayload{EventType: "doSomethingUnknown"})
	require.Equal(t, ErrorCodeUnknownMsg, reply.Result)
}

func TestService_ResolveAccount_EmptySessionId(t *testing.T) {
	svc := &service{
		logger:     log.NewNopLogger(),
		sessionDao: &sessionDao{},
	}

	account, ok := svc.resolveAccount(context.Background(), "")
	require.False(t, ok)
	require.Empty(t, account)
}
