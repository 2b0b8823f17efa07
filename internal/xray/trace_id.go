package xray

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewTraceID builds a sampled X-Ray trace header:
// Root=1-<epoch seconds hex>-<24 hex>;Parent=<16 hex>;Sampled=1
func NewTraceID() string {
	return newTraceID(time.Now())
}

func newTraceID(now time.Time) string {
	return fmt.Sprintf("Root=1-%x-%s;Parent=%s;Sampled=1", now.Unix(), randomHex(24), randomHex(16))
}

func randomHex(length int) string {
	b := make([]byte, (length+1)/2)
	if _, err := rand.Read(b); err != nil {
		panic("xray: random source unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)[:length]
}
