package idgen

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const trackingCodePrefix = "TMP"

// New returns a globally unique submission id and a human-readable temporary
// tracking code. Uniqueness comes from wall-clock time plus a random suffix,
// so concurrent callers need no coordination. Never fails.
func New() (id string, trackingCode string) {
	now := time.Now().UTC()
	rnd := strings.ReplaceAll(uuid.New().String(), "-", "")
	id = fmt.Sprintf("%d-%s", now.UnixNano(), rnd[:12])
	trackingCode = fmt.Sprintf("%s-%s-%s", trackingCodePrefix, now.Format("20060102"), strings.ToUpper(rnd[12:18]))
	return
}
