package rental_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/forklift-rental/rental"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1000000", 1_000_000, false},
		{"1,000,000", 1_000_000, false},
		{" 350,000 ", 350_000, false},
		{"0", 0, false},
		{"-5", 0, true},
		{"12.5", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := rental.ParseMoney("rental_fee", tt.in)
			if tt.wantErr {
				var ve *rental.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "rental_fee", ve.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Int64())
		})
	}
}

func TestMoneyJSON(t *testing.T) {
	var body struct {
		Fee     rental.Money  `json:"fee"`
		Deposit *rental.Money `json:"deposit"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"fee":"1,200,000","deposit":500000}`), &body))
	assert.Equal(t, int64(1_200_000), body.Fee.Int64())
	require.NotNil(t, body.Deposit)
	assert.Equal(t, int64(500_000), body.Deposit.Int64())

	out, err := json.Marshal(rental.Won(42_000))
	require.NoError(t, err)
	assert.Equal(t, "42000", string(out))

	err = json.Unmarshal([]byte(`{"fee":-1}`), &body)
	assert.ErrorIs(t, err, rental.ErrValidation)
}

func TestOrZero(t *testing.T) {
	assert.True(t, rental.OrZero(nil).IsZero())
	v := rental.Won(7)
	assert.Equal(t, int64(7), rental.OrZero(&v).Int64())
}

func TestDateJSON(t *testing.T) {
	var body struct {
		Start rental.Date `json:"start"`
		End   rental.Date `json:"end"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2024-02-29","end":null}`), &body))
	assert.Equal(t, "2024-02-29", body.Start.String())
	assert.True(t, body.End.IsZero())

	out, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2024-02-29","end":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"start":"2024-02-30"}`), &body))
	assert.Error(t, json.Unmarshal([]byte(`{"start":20240229}`), &body))
}

func TestParseDate(t *testing.T) {
	_, err := rental.ParseDate("start_date", "")
	assert.ErrorIs(t, err, rental.ErrValidation)

	_, err = rental.ParseDate("start_date", "05/10/2024")
	var ve *rental.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "start_date", ve.Field)

	d, err := rental.ParseOptionalDate("withdrawal_date", "  ")
	require.NoError(t, err)
	assert.True(t, d.IsZero())
	assert.Equal(t, "", d.String())
}

func TestDateArithmetic(t *testing.T) {
	d := rental.MustDate("2024-01-31")

	assert.Equal(t, "2024-02-01", d.AddDays(1).String())
	assert.Equal(t, "2024-01-01", d.StartOfMonth().String())
	assert.Equal(t, "2024-02-29", rental.MustDate("2024-02-10").EndOfMonth().String())
	assert.Equal(t, 366, rental.MustDate("2024-01-01").DaysUntil(rental.MustDate("2025-01-01")))
	assert.Equal(t, -1, d.DaysUntil(rental.MustDate("2024-01-30")))
	assert.True(t, d.BeforeOrEqual(d))
	assert.True(t, d.AfterOrEqual(d))
}
