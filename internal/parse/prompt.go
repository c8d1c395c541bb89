package parse

import (
	"fmt"
	"strings"

	"github.com/trackerzenith/docpipe/internal/catalog"
)

// userPrompt lays out the option lists, the default currency and the OCR text.
func userPrompt(opts *catalog.Options, defaultCurrency, rawText string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Default currency when none is printed: %s\n\n", defaultCurrency)

	for _, typ := range []string{catalog.TypeExpense, catalog.TypeIncome} {
		fmt.Fprintf(&b, "Category options for %s transactions (id: name):\n", typ)
		categories := opts.ByType(typ)
		for _, c := range categories {
			fmt.Fprintf(&b, "- %d: %s\n", c.ID, c.Name)
		}
		if len(categories) == 0 {
			b.WriteString("- none\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Payment method options (id: name):\n")
	for _, m := range opts.PaymentMethods {
		fmt.Fprintf(&b, "- %d: %s\n", m.ID, m.Name)
	}
	if len(opts.PaymentMethods) == 0 {
		b.WriteString("- none\n")
	}

	b.WriteString("\nReceipt text:\n<<<\n")
	b.WriteString(strings.TrimSpace(rawText))
	b.WriteString("\n>>>\n")

	return b.String()
}
