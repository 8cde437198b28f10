package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateLONumber builds a Sydonia liquidation-order number for a
// customs fine, e.g. LO20240115A3F2B1.
func GenerateLONumber(controlID uuid.UUID) string {
	short := strings.ToUpper(strings.ReplaceAll(controlID.String(), "-", ""))[:6]
	return fmt.Sprintf("LO%s%s", time.Now().Format("20060102"), short)
}

// GenerateReference generates a unique reference with the given prefix
func GenerateReference(prefix string) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, 8)
	for i := range result {
		result[i] = charset[rand.Intn(len(charset))]
	}
	return fmt.Sprintf("%s_%s_%s", prefix, time.Now().Format("20060102"), string(result))
}
