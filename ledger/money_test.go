package ledger_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pos-ledger/ledger"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"400", "400.00"},
		{"12.345", "12.35"},
		{"-3.1", "-3.10"},
		{"999999999999999.99", "999999999999999.99"},
		{"0.30000000000000004", "0.30"},
	}
	for _, tt := range tests {
		m, err := ledger.ParseMoney(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, m.String(), tt.in)
	}
}

func TestParseMoney_OutOfRange(t *testing.T) {
	for _, in := range []string{"1e200000000", "-1e200000000", "1e-200000000", "1e15", "1234567890123456"} {
		_, err := ledger.ParseMoney(in)
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount, in)
	}

	_, err := ledger.ParseMoney("abc")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestMoney_UnmarshalJSON(t *testing.T) {
	var m ledger.Money
	require.NoError(t, json.Unmarshal([]byte(`"150.50"`), &m))
	assert.Equal(t, "150.50", m.String())

	require.NoError(t, json.Unmarshal([]byte(`75`), &m))
	assert.Equal(t, "75.00", m.String())

	require.NoError(t, json.Unmarshal([]byte(`null`), &m))
	assert.True(t, m.IsZero())
}

func TestMoney_UnmarshalJSON_HugeExponentRejected(t *testing.T) {
	// Rounding these would allocate a coefficient with millions of digits
	for _, raw := range []string{`1e200000000`, `"1e200000000"`, `{"amount": 1e200000000}`} {
		var req struct {
			Amount ledger.Money `json:"amount"`
		}
		var err error
		if raw[0] == '{' {
			err = json.Unmarshal([]byte(raw), &req)
		} else {
			err = json.Unmarshal([]byte(raw), &req.Amount)
		}
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount, raw)
	}
}

func TestMustParseMoney_PanicsOnBadInput(t *testing.T) {
	assert.Equal(t, "1.00", ledger.MustParseMoney("1").String())
	assert.Panics(t, func() { ledger.MustParseMoney("one") })
}
