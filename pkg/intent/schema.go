package intent

// extractionSchema describes the structured reading the model must return.
// Field descriptions double as extraction instructions; the schema is folded
// into the system prompt verbatim, and the model's reply is validated
// against it before anything downstream sees it.
var extractionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"country_name": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Destination country named in the message, in English with the first letter capitalized, e.g. \"Japan\". null when no country is mentioned.",
		},
		"country_code": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Two letter ISO code for the destination, uppercase, e.g. \"JP\". null when no country is mentioned.",
		},
		"data_amount": map[string]any{
			"type":        []string{"number", "null"},
			"description": "Amount of mobile data requested, as a number, e.g. 5 for \"5GB\". null when the message does not mention a data volume.",
		},
		"data_unit": map[string]any{
			"type":        []string{"string", "null"},
			"enum":        []any{"MB", "GB", nil},
			"description": "Unit of the requested data volume, exactly \"MB\" or \"GB\". null when the message does not mention a data volume.",
		},
		"duration_in_days": map[string]any{
			"type":        []string{"integer", "null"},
			"description": "Trip length in whole days, e.g. 10 for \"10 days\" or 14 for \"two weeks\". null when the message does not mention a duration.",
		},
		"chat_response": map[string]any{
			"type":        []string{"string", "null"},
			"description": "A short, friendly reply in the language of the user's message, acknowledging what was understood.",
		},
	},
	"additionalProperties": true,
}
