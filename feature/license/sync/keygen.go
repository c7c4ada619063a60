package sync

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

const keySuffixCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateKey synthesizes a traceable business key for an internal record
// created from an external-only license: EXT-<identifier>-<suffix>.
//
// The identifier prefers the app_id, then C<count_id>, then the last six
// digits of the current timestamp as a last resort. The 3-character suffix is
// not collision-proof; uniqueness is enforced by the internal store's unique
// key constraint, which simply rejects the rare duplicate.
func GenerateKey(appid string, countid int) string {
	var identifier string
	switch {
	case strings.TrimSpace(appid) != "":
		identifier = strings.TrimSpace(appid)
	case countid != 0:
		identifier = "C" + strconv.Itoa(countid)
	default:
		ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
		identifier = ts[len(ts)-6:]
	}

	suffix := make([]byte, 3)
	for i := range suffix {
		suffix[i] = keySuffixCharset[rand.Intn(len(keySuffixCharset))]
	}

	return fmt.Sprintf("EXT-%s-%s", identifier, suffix)
}
