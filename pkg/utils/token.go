package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// ResetTokenBytes 32 字节随机数 = 64 位 hex
const ResetTokenBytes = 32

// NewResetToken 返回原始 token（只发给用户）和它的 sha256（只入库）
func NewResetToken() (raw, hashed string, err error) {
	b := make([]byte, ResetTokenBytes)
	if _, err = rand.Read(b); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(b)
	return raw, HashResetToken(raw), nil
}

func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
