package alerting

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"ah-price-alerts/internal/market"
	"ah-price-alerts/internal/money"
)

// DefaultChunkLimit keeps messages well below Telegram's 4096 character cap so
// the transport has room for escaping.
const DefaultChunkLimit = 3500

const continuedSuffix = " (cont.)"

// Formatter renders aggregated alerts into delivery-sized text chunks.
type Formatter struct {
	Region string
	Limit  int
}

// Block is one item's header followed by one line per cluster.
type Block struct {
	Header string
	Lines  []string
}

// Format renders alerts and splits them into chunks of at most Limit runes.
// It returns nil when there is nothing to report.
func (f Formatter) Format(alerts []market.AggregatedAlert, thresholds map[int64]money.Copper) []string {
	if len(alerts) == 0 {
		return nil
	}

	blocks := make([]Block, 0, len(alerts))
	for _, a := range alerts {
		if len(a.Offers) == 0 {
			continue
		}
		blocks = append(blocks, RenderBlock(a, thresholds[a.ItemID]))
	}
	if len(blocks) == 0 {
		return nil
	}

	title := "Auction matches"
	if f.Region != "" {
		title = fmt.Sprintf("Auction matches (%s)", strings.ToUpper(f.Region))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultChunkLimit
	}
	return Chunk(title, blocks, limit)
}

// RenderBlock renders one item's alert.
func RenderBlock(a market.AggregatedAlert, threshold money.Copper) Block {
	b := Block{
		Header: fmt.Sprintf("%s (id %d) <= %dg/unit", a.Name, a.ItemID, threshold.Gold()),
		Lines:  make([]string, 0, len(a.Offers)),
	}
	for _, o := range a.Offers {
		b.Lines = append(b.Lines, fmt.Sprintf("  %s x%d | %s | auction %d | %s",
			o.UnitPrice, o.Quantity, o.Label, o.ListingID, o.TimeLeft))
	}
	return b
}

// Chunk packs the title and blocks into chunks of at most limit runes,
// splitting only between lines. Blocks are separated by a blank line. A chunk
// that begins inside a block repeats the block header marked "(cont.)". A
// single line longer than limit is truncated.
func Chunk(title string, blocks []Block, limit int) []string {
	c := &chunker{limit: limit}
	if title != "" {
		c.push(c.truncate(title))
	}

	for _, b := range blocks {
		header := c.truncate(b.Header)
		var first string
		if len(b.Lines) > 0 {
			first = c.truncate(b.Lines[0])
		}

		if !c.empty() {
			lead := []string{"", header}
			if len(b.Lines) > 0 {
				lead = append(lead, first)
			}
			if c.fits(lead...) {
				c.push("")
			} else {
				c.flush()
			}
		}
		if c.empty() && len(b.Lines) > 0 {
			header, first = c.pair(header, first)
		}
		c.push(header)

		for i, raw := range b.Lines {
			line := first
			if i > 0 {
				line = c.truncate(raw)
			}
			if !c.fits(line) {
				c.flush()
				var cont string
				cont, line = c.pair(c.truncate(b.Header+continuedSuffix), line)
				c.push(cont)
			}
			c.push(line)
		}
	}

	c.flush()
	return c.chunks
}

type chunker struct {
	limit  int
	chunks []string
	lines  []string
	size   int
}

func (c *chunker) empty() bool { return len(c.lines) == 0 }

func (c *chunker) fits(lines ...string) bool {
	n, count := c.size, len(c.lines)
	for _, l := range lines {
		if count > 0 {
			n++
		}
		n += utf8.RuneCountInString(l)
		count++
	}
	return n <= c.limit
}

func (c *chunker) push(line string) {
	if len(c.lines) > 0 {
		c.size++
	}
	c.lines = append(c.lines, line)
	c.size += utf8.RuneCountInString(line)
}

func (c *chunker) flush() {
	if len(c.lines) == 0 {
		return
	}
	c.chunks = append(c.chunks, strings.Join(c.lines, "\n"))
	c.lines = c.lines[:0]
	c.size = 0
}

func (c *chunker) truncate(line string) string {
	return truncateTo(line, c.limit)
}

// pair shortens a header and the line under it so both fit one empty chunk.
// The header keeps at most half the limit when something has to give.
func (c *chunker) pair(header, line string) (string, string) {
	hn, ln := utf8.RuneCountInString(header), utf8.RuneCountInString(line)
	if hn+1+ln <= c.limit {
		return header, line
	}
	if half := c.limit / 2; hn > half {
		header = truncateTo(header, max(half, c.limit-1-ln))
		hn = utf8.RuneCountInString(header)
	}
	return header, truncateTo(line, c.limit-1-hn)
}

func truncateTo(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 1 {
		return "…"
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}
