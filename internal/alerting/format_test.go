package alerting

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ah-price-alerts/internal/market"
	"ah-price-alerts/internal/money"
)

func TestFormatNoAlerts(t *testing.T) {
	t.Parallel()

	f := Formatter{Region: "eu", Limit: 500}
	assert.Nil(t, f.Format(nil, nil))
	assert.Nil(t, f.Format([]market.AggregatedAlert{{AlertKey: market.AlertKey{ItemID: 1, Name: "Empty"}}}, nil))
}

func TestFormatSingleAlert(t *testing.T) {
	t.Parallel()

	alerts := []market.AggregatedAlert{{
		AlertKey: market.AlertKey{ItemID: 42, Name: "Foo"},
		Offers: []market.LabeledOffer{{
			Label: "X",
			BestOffer: market.BestOffer{
				ItemID: 42, ClusterID: 1, UnitPrice: 1_000_000, Quantity: 99, ListingID: 555, TimeLeft: "VERY_LONG",
			},
		}},
	}}

	chunks := Formatter{Region: "eu", Limit: DefaultChunkLimit}.Format(alerts, map[int64]money.Copper{42: 1_009_999})
	require.Len(t, chunks, 1)
	assert.Equal(t,
		"Auction matches (EU)\n"+
			"Foo (id 42) <= 100g/unit\n"+
			"  100g 0s 0c x99 | X | auction 555 | VERY_LONG",
		chunks[0])
}

func manyAlerts(items, clusters int) []market.AggregatedAlert {
	out := make([]market.AggregatedAlert, 0, items)
	for i := 0; i < items; i++ {
		a := market.AggregatedAlert{AlertKey: market.AlertKey{ItemID: int64(i + 1), Name: fmt.Sprintf("Item %02d", i)}}
		for c := 0; c < clusters; c++ {
			a.Offers = append(a.Offers, market.LabeledOffer{
				Label: fmt.Sprintf("Realm %02d", c),
				BestOffer: market.BestOffer{
					ItemID: int64(i + 1), ClusterID: int64(c + 1), UnitPrice: money.Copper(100 * (c + 1)),
					Quantity: 1, ListingID: int64(i*1000 + c), TimeLeft: "SHORT",
				},
			})
		}
		out = append(out, a)
	}
	return out
}

func TestFormatChunking(t *testing.T) {
	t.Parallel()

	const limit = 300
	alerts := manyAlerts(6, 5)
	chunks := Formatter{Region: "eu", Limit: limit}.Format(alerts, nil)
	require.GreaterOrEqual(t, len(chunks), 2)

	seen := make(map[string]int)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), limit, "chunk %d too long", i)
		assert.False(t, strings.HasPrefix(chunk, "\n"), "chunk %d starts with a blank line", i)
		assert.False(t, strings.HasSuffix(chunk, "\n"), "chunk %d ends with a blank line", i)

		for _, line := range strings.Split(chunk, "\n") {
			if strings.HasPrefix(line, "  ") {
				seen[line]++
				// every offer line is whole
				assert.True(t, strings.HasSuffix(line, "| SHORT"), line)
			}
		}
		if i > 0 {
			first := strings.SplitN(chunk, "\n", 2)[0]
			assert.False(t, strings.HasPrefix(first, "  "), "chunk %d starts without a header", i)
		}
	}

	assert.Len(t, seen, 6*5)
	for line, n := range seen {
		assert.Equal(t, 1, n, line)
	}
}

func TestChunkRepeatsHeaderWhenSplittingBlock(t *testing.T) {
	t.Parallel()

	block := Block{Header: "Foo (id 1) <= 1g/unit", Lines: []string{"  line-a", "  line-b", "  line-c"}}
	chunks := Chunk("", []Block{block}, 40)

	assert.Equal(t, []string{
		"Foo (id 1) <= 1g/unit\n  line-a\n  line-b",
		"Foo (id 1) <= 1g/unit (cont.)\n  line-c",
	}, chunks)
}

func TestChunkKeepsHeaderWithFirstLine(t *testing.T) {
	t.Parallel()

	blocks := []Block{
		{Header: "A", Lines: []string{"  a1"}},
		{Header: "B", Lines: []string{"  b1"}},
	}

	// "B" alone would still fit after the first block, its first line would not
	assert.Equal(t, []string{"T\n\nA\n  a1", "B\n  b1"}, Chunk("T", blocks, 13))
	assert.Equal(t, []string{"T\n\nA\n  a1\n\nB\n  b1"}, Chunk("T", blocks, 100))
}

func TestChunkTruncatesOverlongLine(t *testing.T) {
	t.Parallel()

	long := "  " + strings.Repeat("x", 50)
	chunks := Chunk("", []Block{{Header: "H", Lines: []string{long}}}, 20)

	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 20)
	}
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1], "…"))
}

func TestChunkNeverLeavesHeaderWithoutLine(t *testing.T) {
	t.Parallel()

	long := "  " + strings.Repeat("x", 50)

	chunks := Chunk("", []Block{{Header: "ABCDEFGHIJKLMNO", Lines: []string{long}}}, 20)
	assert.Equal(t, []string{"ABCDEFGHI…\n  xxxxxx…"}, chunks)

	chunks = Chunk("", []Block{{Header: "HHHHHHHHHHHH", Lines: []string{"  a", long}}}, 20)
	assert.Equal(t, []string{"HHHHHHHHHHHH\n  a", "HHHHHHHHH…\n  xxxxxx…"}, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 20)
	}
}
