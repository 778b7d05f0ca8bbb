package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeToken(t *testing.T) {
	cursor := Cursor{
		TransactionDate: time.Date(2023, 5, 15, 0, 0, 0, 0, time.UTC),
		CreatedAt:       time.Date(2023, 5, 15, 14, 30, 45, 123456789, time.UTC),
		EntryID:         "5f1c7a8e-0f43-4b8e-9d55-2f7a1d0e9c11",
	}

	token := EncodeToken(cursor)
	assert.NotEmpty(t, token, "Token should not be empty")

	decoded, err := DecodeToken(token)
	assert.NoError(t, err, "Decoding should not return an error")
	assert.True(t, cursor.TransactionDate.Equal(decoded.TransactionDate))
	assert.True(t, cursor.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, cursor.EntryID, decoded.EntryID)

	// Zero time values
	zero := Cursor{EntryID: "x"}
	decodedZero, err := DecodeToken(EncodeToken(zero))
	assert.NoError(t, err)
	assert.Equal(t, zero.TransactionDate, decodedZero.TransactionDate)
}

func TestDecodeTokenError(t *testing.T) {
	_, err := DecodeToken("this is not base64!")
	assert.Error(t, err, "Should return an error for invalid base64")
	assert.Contains(t, err.Error(), "base64 decode")

	missingID := base64.URLEncoding.EncodeToString([]byte("2023-05-15T00:00:00Z|2023-05-15T00:00:00Z"))
	_, err = DecodeToken(missingID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "split")

	badDate := base64.URLEncoding.EncodeToString([]byte("notadate|2023-05-15T14:30:45Z|id"))
	_, err = DecodeToken(badDate)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "transaction date parse")
}

func TestCursorAfter(t *testing.T) {
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	at := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	c := Cursor{TransactionDate: day, CreatedAt: at, EntryID: "m"}

	assert.True(t, c.After(day.AddDate(0, 0, -1), at, "z"))
	assert.False(t, c.After(day.AddDate(0, 0, 1), at, "a"))
	assert.True(t, c.After(day, at.Add(-time.Second), "z"))
	assert.True(t, c.After(day, at, "a"))
	assert.False(t, c.After(day, at, "m"))
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, 20, NormalizeLimit(0, 20, 100))
	assert.Equal(t, 100, NormalizeLimit(500, 20, 100))
	assert.Equal(t, 7, NormalizeLimit(7, 20, 100))
}
