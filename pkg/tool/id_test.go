package tool

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateMerchantTxnID_Format(t *testing.T) {
	now := time.UnixMilli(1735689600000)
	id := GenerateMerchantTxnID("SUB", now)

	require.True(t, strings.HasPrefix(id, "SUB-m5d4ruo0"), id)
	require.Len(t, id, len("SUB-m5d4ruo0")+6)
	require.LessOrEqual(t, len(id), MaxMerchantTxnIDLen)
}

func TestGenerateMerchantTxnID_TruncatesLongPrefix(t *testing.T) {
	id := GenerateMerchantTxnID(strings.Repeat("P", 40), time.Now())
	require.Len(t, id, MaxMerchantTxnIDLen)
}

func TestGenerateMerchantTxnID_MostlyDistinctUnderConcurrency(t *testing.T) {
	const n = 200
	now := time.Now()
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = GenerateMerchantTxnID("SUB", now)
		}(i)
	}
	wg.Wait()

	seen := map[string]struct{}{}
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	// Same millisecond, 10^6 suffixes: collisions are possible but rare.
	require.Greater(t, len(seen), n-5)
}
