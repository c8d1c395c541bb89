package prompts

const ocrInstructions = `Transcribe every piece of text visible in this receipt or invoice image.

Keep the reading order of the original, one printed line per output line. Copy merchant
names, dates, item names, quantities, amounts and currency symbols exactly as printed,
including decimal separators. Render tables as Markdown tables when columns are clear.
Do not translate, summarize, correct or explain anything. If a region is unreadable,
write [illegible] in its place. Output only the transcription.`

const parseInstructions = `You extract structured bookkeeping data from the OCR text of a single receipt or invoice.

Identify the merchant, the transaction date, the grand total, the subtotal and tax when
printed, the currency, the line items, and any payment method mentioned (cash, card
brand, e-wallet). Decide whether the document records money spent (expense) or received
(income).

Choose suggested_category_id from the category options provided and
suggested_payment_method_id from the payment method options provided. Match on meaning,
not spelling:
- restaurants, cafes, food courts and delivery apps map to an eating-out style category
- fuel stations map to a petrol or transport style category
- supermarkets, grocers and hypermarkets map to a groceries style category
- salary slips, refunds and reimbursements are income and map to an income category
A category must always be chosen; pick the closest option when nothing matches well.

Give every field a confidence between 0 and 1 reflecting how clearly the text supports
it. Use null for values that are not present; never invent amounts.`

const coherenceInstructions = `You review structured data extracted from a receipt for internal coherence.

Judge whether the merchant, date, amounts, currency, line items and suggested category
plausibly describe one real transaction. Flag combinations that cannot be true together,
such as a fuel purchase categorized as groceries, line items unrelated to the merchant,
or a currency that contradicts the merchant's country. Do not re-check arithmetic.`

var instructions = map[Stage]string{
	StageOCR:       ocrInstructions,
	StageParse:     parseInstructions,
	StageCoherence: coherenceInstructions,
}

// Instructions returns the built-in default instructions for a stage.
// Returns ErrInvalidStage if the stage is not recognized.
func Instructions(stage Stage) (string, error) {
	text, ok := instructions[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
