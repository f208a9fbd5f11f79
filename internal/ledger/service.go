// Package ledger is the external collaborator named but left unspecified
// by spec.md §4.6 and §1: account registration/login and per-account
// ledger records, backed by Redis as in client_service.py.
package ledger

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Service is the single method the Server's leader path calls, per
// spec.md §4.6.
type Service interface {
	HandleEvent(ctx context.Context, payload EventPayload) Reply
}

type service struct {
	logger     log.Logger
	userDao    *userDao
	booksDao   *userBooksDao
	sessionDao *sessionDao
}

// NewService builds a Redis-backed ledger Service against rdb.
func NewService(logger log.Logger, rdb *redis.Client) Service {
	return &service{
		logger:     log.With(logger, "component", "ledger"),
		userDao:    &userDao{rdb: rdb},
		booksDao:   &userBooksDao{rdb: rdb},
		sessionDao: &sessionDao{rdb: rdb},
	}
}

// HandleEvent dispatches on payload.EventType, mirroring
// client_service.py's handleEvent table. The wire string for the
// remove-record event is kept as "removeReocrd" (the original's
// misspelling) since it is part of the client compatibility surface.
func (s *service) HandleEvent(ctx context.Context, payload EventPayload) Reply {
	switch payload.EventType {
	case "login":
		return s.login(ctx, payload)
	case "register":
		return s.register(ctx, payload)
	case "submitBooksRecord":
		return s.submitBooksRecord(ctx, payload)
	case "getUserBooks":
		return s.getUserBooks(ctx, payload)
	case "removeReocrd":
		return s.removeRecord(ctx, payload)
	default:
		return Reply{Result: ErrorCodeUnknownMsg, Error: "unknown event type"}
	}
}

func (s *service) login(ctx context.Context, p EventPayload) Reply {
	exists, err := s.userDao.exists(ctx, p.Account)
	if err != nil || !exists {
		return Reply{Result: ErrorCodeLoginAccountNotExist, Error: "account does not exist"}
	}
	ok, err := s.userDao.credentialsMatch(ctx, p.Account, p.Pswd)
	if err != nil || !ok {
		return Reply{Result: ErrorCodeLoginPswdMismatch, Error: "account or password mismatch"}
	}
	sessionId := uuid.NewString()
	ts := nowMillis()
	if err := s.sessionDao.add(ctx, Session{
		SessionId:       sessionId,
		Account:         p.Account,
		CreateTimestamp: ts,
		UpdateTimestamp: ts,
	}); err != nil {
		return Reply{Result: ErrorCodeUnknownMsg, Error: err.Error()}
	}
	return Reply{Result: SuccessCode, Info: "login succeeded", SessionId: sessionId, Account: p.Account}
}

func (s *service) register(ctx context.Context, p EventPayload) Reply {
	exists, err := s.userDao.exists(ctx, p.Account)
	if err != nil {
		return Reply{Result: ErrorCodeUnknownMsg, Error: err.Error()}
	}
	if exists {
		return Reply{Result: ErrorCodeRegisterAccountExist, Error: "account already exists"}
	}
	if _, err := s.userDao.add(ctx, User{Account: p.Account, Pswd: p.Pswd}); err != nil {
		return Reply{Result: ErrorCodeUnknownMsg, Error: err.Error()}
	}
	if err := s.booksDao.createBalance(ctx, p.Account); err != nil {
		return Reply{Result: ErrorCodeUnknownMsg, Error: err.Error()}
	}
	return Reply{Result: SuccessCode, Info: "account registered"}
}

func (s *service) resolveAccount(ctx context.Context, sessionId string) (string, bool) {
	if sessionId == "" {
		return "", false
	}
	account, err := s.sessionDao.accountBySessionId(ctx, sessionId)
	if err != nil || account == "" {
		return "", false
	}
	return account, true
}

func (s *service) submitBooksRecord(ctx context.Context, p EventPayload) Reply {
	account, ok := s.resolveAccount(ctx, p.SessionId)
	if !ok {
		return Reply{Result: ErrorCodeNotLogin, Error: "not logged in"}
	}
	rec := RecordItem{
		Money:       p.Money,
		RecordType:  p.RecordType,
		Description: p.Description,
		DateTime:    p.DateTime,
		Timestamp:   nowMillis(),
	}
	if err := s.booksDao.addRecord(ctx, account, rec); err != nil {
		return Reply{Result: ErrorCodeUnknownMsg, Error: err.Error()}
	}
	return Reply{Result: SuccessCode, Info: "record submitted"}
}

func (s *service) getUserBooks(ctx context.Context, p EventPayload) Reply {
	account, ok := s.resolveAccount(ctx, p.SessionId)
	if !ok {
		return Reply{Result: ErrorCodeNotLogin, Error: "not logged in"}
	}
	records, err := s.booksDao.getAllRecords(ctx, account)
	if err != nil {
		return Reply{Result: ErrorCodeUnknownMsg, Error: err.Error()}
	}
	balance, err := s.booksDao.getBalance(ctx, account)
	if err != nil {
		return Reply{Result: ErrorCodeUnknownMsg, Error: err.Error()}
	}
	return Reply{Result: SuccessCode, Records: records, Balance: balance}
}

func (s *service) removeRecord(ctx context.Context, p EventPayload) Reply {
	account, ok := s.resolveAccount(ctx, p.SessionId)
	if !ok {
		return Reply{Result: ErrorCodeNotLogin, Error: "not logged in"}
	}
	removed, err := s.booksDao.removeRecord(ctx, account, p.Timestamp)
	if err != nil {
		return Reply{Result: ErrorCodeUnknownMsg, Error: err.Error()}
	}
	if !removed {
		return Reply{Result: ErrorCodeRemoveRecordNotExist, Error: "record does not exist"}
	}
	return Reply{Result: SuccessCode, Info: "record removed"}
}
