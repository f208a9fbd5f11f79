package ledger

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// userBooksDao persists per-account balances and record lists in Redis
// hashes and lists, mirroring client_service.py's UserBooksDao.
type userBooksDao struct {
	rdb *redis.Client
}

func (d *userBooksDao) createBalance(ctx context.Context, account string) error {
	ts := nowMillis()
	return d.rdb.HSet(ctx, balanceKey(account), map[string]interface{}{
		"account":         account,
		"balance":         0,
		"updateTimestamp": ts,
		"createTimestamp": ts,
	}).Err()
}

func (d *userBooksDao) addRecord(ctx context.Context, account string, rec RecordItem) error {
	bal, err := d.getBalance(ctx, account)
	if err != nil {
		return err
	}
	if bal == nil {
		if err := d.createBalance(ctx, account); err != nil {
			return err
		}
		bal, err = d.getBalance(ctx, account)
		if err != nil {
			return err
		}
	}
	newBalance := bal.Balance + rec.Money

	data, err := marshalRecord(rec)
	if err != nil {
		return err
	}
	if err := d.rdb.LPush(ctx, recordsKey(account), data).Err(); err != nil {
		return err
	}
	return d.rdb.HSet(ctx, balanceKey(account), map[string]interface{}{
		"balance":         newBalance,
		"updateTimestamp": nowMillis(),
	}).Err()
}

func (d *userBooksDao) removeRecord(ctx context.Context, account string, timestamp int64) (bool, error) {
	records, err := d.getAllRecordsRaw(ctx, account)
	if err != nil {
		return false, err
	}
	var match string
	var matchRec RecordItem
	for _, raw := range records {
		rec, err := unmarshalRecord(raw)
		if err != nil {
			continue
		}
		if rec.Timestamp == timestamp {
			match = raw
			matchRec = rec
			break
		}
	}
	if match == "" {
		return false, nil
	}
	if err := d.rdb.LRem(ctx, recordsKey(account), 1, match).Err(); err != nil {
		return false, err
	}
	bal, err := d.getBalance(ctx, account)
	if err != nil {
		return false, err
	}
	if bal == nil {
		if err := d.createBalance(ctx, account); err != nil {
			return false, err
		}
		bal, err = d.getBalance(ctx, account)
		if err != nil {
			return false, err
		}
	}
	newBalance := bal.Balance - matchRec.Money
	if err := d.rdb.HSet(ctx, balanceKey(account), map[string]interface{}{
		"balance":         newBalance,
		"updateTimestamp": nowMillis(),
	}).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (d *userBooksDao) getAllRecordsRaw(ctx context.Context, account string) ([]string, error) {
	return d.rdb.LRange(ctx, recordsKey(account), 0, -1).Result()
}

func (d *userBooksDao) getAllRecords(ctx context.Context, account string) ([]RecordItem, error) {
	raws, err := d.getAllRecordsRaw(ctx, account)
	if err != nil {
		return nil, err
	}
	out := make([]RecordItem, 0, len(raws))
	for _, raw := range raws {
		rec, err := unmarshalRecord(raw)
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (d *userBooksDao) getBalance(ctx context.Context, account string) (*Balance, error) {
	m, err := d.rdb.HGetAll(ctx, balanceKey(account)).Result()
	if err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, nil
	}
	bal := &Balance{Account: account}
	bal.Balance, _ = strconv.ParseInt(m["balance"], 10, 64)
	bal.UpdateTimestamp, _ = strconv.ParseInt(m["updateTimestamp"], 10, 64)
	bal.CreateTimestamp, _ = strconv.ParseInt(m["createTimestamp"], 10, 64)
	return bal, nil
}

func balanceKey(account string) string { return "user_books_balance:" + account }
func recordsKey(account string) string { return "user_books_record_list:" + account }

// userDao persists account credentials, mirroring UserDao.
type userDao struct {
	rdb *redis.Client
}

func (d *userDao) exists(ctx context.Context, account string) (bool, error) {
	m, err := d.rdb.HGetAll(ctx, userKey(account)).Result()
	if err != nil {
		return false, err
	}
	return len(m) > 0, nil
}

func (d *userDao) credentialsMatch(ctx context.Context, account, pswd string) (bool, error) {
	m, err := d.rdb.HGetAll(ctx, userKey(account)).Result()
	if err != nil {
		return false, err
	}
	if len(m) == 0 {
		return false, nil
	}
	return m["pswd"] == pswd, nil
}

func (d *userDao) add(ctx context.Context, u User) (bool, error) {
	exists, err := d.exists(ctx, u.Account)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	err = d.rdb.HSet(ctx, userKey(u.Account), map[string]interface{}{
		"account": u.Account,
		"pswd":    u.Pswd,
	}).Err()
	return err == nil, err
}

func userKey(account string) string { return "user:" + account }

// sessionDao persists session-id to account bindings, mirroring SessionDao.
type sessionDao struct {
	rdb *redis.Client
}

func (d *sessionDao) add(ctx context.Context, s Session) error {
	return d.rdb.HSet(ctx, sessionKey(s.SessionId), map[string]interface{}{
		"sessionId":       s.SessionId,
		"account":         s.Account,
		"createTimestamp": s.CreateTimestamp,
		"updateTimestamp": s.UpdateTimestamp,
	}).Err()
}

func (d *sessionDao) accountBySessionId(ctx context.Context, sessionId string) (string, error) {
	m, err := d.rdb.HGetAll(ctx, sessionKey(sessionId)).Result()
	if err != nil {
		return "", err
	}
	return m["account"], nil
}

func sessionKey(sessionId string) string { return "user_session:" + sessionId }
