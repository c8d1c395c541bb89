package prompts

const ocrSpec = `Respond with plain text only: the transcription, without code fences, preamble
or commentary.`

const parseSpec = `Respond with a JSON object matching this exact structure:

{
  "merchant": {"value": "<string|null>", "confidence": 0.0},
  "date": {"value": "<YYYY-MM-DD|null>", "confidence": 0.0},
  "total": {"value": <number|null>, "confidence": 0.0},
  "subtotal": {"value": <number|null>, "confidence": 0.0},
  "tax": {"value": <number|null>, "confidence": 0.0},
  "currency": {"value": "<ISO 4217 code|null>", "confidence": 0.0},
  "transaction_type": {"value": "<expense|income>", "confidence": 0.0},
  "suggested_category_id": {"value": "<category id>", "confidence": 0.0},
  "suggested_payment_method_id": {"value": "<payment method id|null>", "confidence": 0.0},
  "payment_method": {"value": "<string|null>", "confidence": 0.0},
  "items": [
    {"name": "<string>", "qty": 1, "unit_price": <number|null>, "amount": <number|null>, "confidence": 0.0}
  ],
  "notes": "<string|null>"
}

Field constraints:
- Amounts are plain numbers without currency symbols or thousands separators.
- date uses ISO 8601 calendar format.
- suggested_category_id must be one of the category ids provided.
- suggested_payment_method_id must be one of the payment method ids provided, or null.
- confidence is a number between 0 and 1 for every field and item.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Use null for absent values instead of guessing`

const coherenceSpec = `Respond with a JSON object matching this exact structure:

{
  "coherent": true,
  "reason": "<explanation>"
}

Field constraints:
- coherent: false only when the fields cannot describe a single real transaction.
- reason: one sentence naming the conflicting fields, or an empty string when coherent.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing`

var specs = map[Stage]string{
	StageOCR:       ocrSpec,
	StageParse:     parseSpec,
	StageCoherence: coherenceSpec,
}

// Spec returns the output specification for a stage.
// Specifications define the expected output format and are not overridable.
// Returns ErrInvalidStage if the stage is not recognized.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}

// Compose joins instructions and the stage spec into a single system prompt.
func Compose(instructions string, stage Stage) (string, error) {
	spec, err := Spec(stage)
	if err != nil {
		return "", err
	}
	return instructions + "\n\n" + spec, nil
}
