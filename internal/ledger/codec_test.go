package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalRecord_RoundTrip(t *testing.T) {
	rec := RecordItem{
		Money:       -2500,
		RecordType:  1,
		Description: "groceries",
		DateTime:    "2026-07-31",
		Timestamp:   1700000000000,
	}

	raw, err := marshalRecord(rec)
	require.NoError(t, err)

	got, err := unmarshalRecord(raw)
	require.NoError(t, err)
	require.Equal(t, rec, got)
}

func TestUnmarshalRecord_Malformed(t *testing.T) {
	_, err := unmarshalRecord("not json")
	require.Error(t, err)
}
