package refnum

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	PrefixOrder   = "ORD"
	PrefixInvoice = "INV"
	PrefixPayout  = "PO"
	PrefixRefund  = "RF"
)

// Format builds a human-readable reference number from the entity's
// snowflake ID, e.g. ORD-20260901-1KQ3V9ZC8W. The ID component keeps
// the number unique without a separate sequence.
func Format(prefix string, at time.Time, id snowflake.ID) string {
	return fmt.Sprintf("%s-%s-%s",
		prefix,
		at.UTC().Format("20060102"),
		strings.ToUpper(strconv.FormatInt(int64(id), 36)),
	)
}
