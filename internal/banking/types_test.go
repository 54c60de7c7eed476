package banking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferRequest_Validate(t *testing.T) {
	valid := TransferRequest{FromAccount: "ACC1000", ToAccount: "ACC1001", Amount: 100}
	assert.NoError(t, valid.Validate())

	cases := []struct {
		name  string
		req   TransferRequest
		field string
	}{
		{"empty from", TransferRequest{"", "ACC1001", 100}, "fromAccount"},
		{"empty to", TransferRequest{"ACC1000", "", 100}, "toAccount"},
		{"bad from prefix", TransferRequest{"ABC1000", "ACC1001", 100}, "fromAccount"},
		{"bad to prefix", TransferRequest{"ACC1000", "1001", 100}, "toAccount"},
		{"zero amount", TransferRequest{"ACC1000", "ACC1001", 0}, "amount"},
		{"negative amount", TransferRequest{"ACC1000", "ACC1001", -0.01}, "amount"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestParseAmount(t *testing.T) {
	got, err := ParseAmount("100.50")
	require.NoError(t, err)
	assert.Equal(t, 100.50, got)

	got, err = ParseAmount("0.01")
	require.NoError(t, err)
	assert.Equal(t, 0.01, got)

	for _, bad := range []string{"", "abc", "0", "-5", "1,000"} {
		_, err := ParseAmount(bad)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, "input %q", bad)
	}
}
