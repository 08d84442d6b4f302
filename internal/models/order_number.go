package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewOrderNumber returns a human readable order reference such as ORD-20240131-9F2C41AB.
func NewOrderNumber(now time.Time) string {
	entropy := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]

	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), entropy)
}
