package splitlog

import (
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HeaderRequestID is the header carrying the request id in and out of the process.
const HeaderRequestID = "X-Request-ID"

// RequestID is the identifier stamped on every line written by one process.
type RequestID string

func (id RequestID) String() string { return string(id) }

// resolveRequestID prefers a non-empty value from the environment variable
// envKey and otherwise hashes the current time with a random integer.
func resolveRequestID(envKey string, lookup func(string) (string, bool), now time.Time) RequestID {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(envKey); ok {
		if v = strings.TrimSpace(v); v != "" {
			return RequestID(v)
		}
	}
	seed := strconv.FormatInt(now.Unix(), 10) + strconv.Itoa(rand.IntN(1000)+1)
	return RequestID(strings.ReplaceAll(uuid.NewMD5(uuid.Nil, []byte(seed)).String(), "-", ""))
}
