package tool

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// MaxMerchantTxnIDLen is the gateway's limit on merchantTransactionId.
const MaxMerchantTxnIDLen = 38

// GenerateMerchantTxnID returns prefix-<base36 unix millis><random suffix>,
// cut to MaxMerchantTxnIDLen. It is probabilistic; callers must rely on a
// storage-level unique constraint.
func GenerateMerchantTxnID(prefix string, now time.Time) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('-')
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 36))
	b.WriteString(randomSuffix())
	id := b.String()
	if len(id) > MaxMerchantTxnIDLen {
		id = id[:MaxMerchantTxnIDLen]
	}
	return id
}

func randomSuffix() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		// crypto/rand only fails if the OS entropy source is broken.
		return strconv.FormatInt(time.Now().UnixNano()%1_000_000, 10)
	}
	return strconv.FormatInt(n.Int64()+1_000_000, 10)[1:]
}
