package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(date|stock_code|shares|buy_price)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(date, stockCode string, shares int, buyPrice float64) string {
	data := fmt.Sprintf("%s|%s|%d|%g",
		date,
		stockCode,
		shares,
		buyPrice,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
