package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Items resolves the watchlist and prints each watched item with its ceiling.
func (a *App) Items(ctx context.Context, out io.Writer) error {
	svc, err := a.newService(nil, a.newNotifier())
	if err != nil {
		return err
	}

	cat, err := svc.Catalog(ctx)
	if err != nil {
		return err
	}
	if cat.Len() == 0 {
		fmt.Fprintln(out, "no items resolved")
		return nil
	}

	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tName\tMax unit price\tGold")
	for _, it := range cat.Items() {
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\n", it.ID, sanitizeInline(it.Name), it.Threshold, it.Threshold.AsGold().StringFixed(2))
	}
	return writer.Flush()
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	cleaned = strings.ReplaceAll(cleaned, "\t", " ")
	return cleaned
}
