package ledger

import "encoding/json"

func marshalRecord(rec RecordItem) (string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalRecord(raw string) (RecordItem, error) {
	var rec RecordItem
	err := json.Unmarshal([]byte(raw), &rec)
	return rec, err
}
