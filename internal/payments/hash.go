package payments

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// ResponseHash computes the gateway's reverse hash for a payment response:
// sha512(salt|status|||||||||||email|firstname|productinfo|amount|txnid|key).
func ResponseHash(salt, key string, c Confirmation) string {
	fields := []string{salt, c.Status}
	// udf1..udf10 are unused and hashed as empty fields.
	fields = append(fields, make([]string, 10)...)
	fields = append(fields, c.Email, c.FirstName, c.ProductInfo, c.Amount, c.TxnID, key)
	sum := sha512.Sum512([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])
}

func validResponseHash(salt, key string, c Confirmation) bool {
	if strings.TrimSpace(c.Hash) == "" {
		return false
	}
	expected := ResponseHash(salt, key, c)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(c.Hash))) == 1
}
