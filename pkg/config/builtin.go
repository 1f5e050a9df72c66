package config

// Built-in cocktail definitions. A cocktails.yaml file in the config
// directory may override or extend these (see loader.go).
//
// Slot alignment matters: Fallback[i] is the designated replacement for
// Primary[i] when that primary is unavailable at activation or fails in R1.
func builtinCocktails() map[string]*Cocktail {
	return map[string]*Cocktail{
		"LUXE": {
			Name: "LUXE",
			Primary: []string{
				"anthropic/claude-opus-4",
				"openai/o1",
				"google/gemini-2.5-pro",
			},
			Fallback: []string{
				"anthropic/claude-3.7-sonnet",
				"openai/gpt-4o",
				"x-ai/grok-4",
			},
		},
		"PREMIUM": {
			Name: "PREMIUM",
			Primary: []string{
				"openai/gpt-4o",
				"x-ai/grok-4",
				"deepseek/deepseek-r1",
			},
			Fallback: []string{
				"anthropic/claude-3.7-sonnet",
				"google/gemini-2.0-flash-001",
				"meta-llama/llama-4-maverick",
			},
		},
		"SPEEDY": {
			Name: "SPEEDY",
			Primary: []string{
				"openai/gpt-4o-mini",
				"x-ai/grok-4-fast",
				"meta-llama/llama-3.3-70b-instruct",
			},
			Fallback: []string{
				"google/gemini-2.0-flash-exp:free",
				"mistralai/mistral-small-3.1-24b-instruct",
				"qwen/qwen-2.5-72b-instruct",
			},
		},
		"BUDGET": {
			Name: "BUDGET",
			Primary: []string{
				"openai/gpt-3.5-turbo",
				"mistralai/mistral-large",
				"x-ai/grok-4-fast:free",
			},
			Fallback: []string{
				"meta-llama/llama-3.3-70b-instruct",
				"google/gemini-2.0-flash-exp:free",
				"qwen/qwen-2.5-7b-instruct",
			},
		},
		"DEPTH": {
			Name: "DEPTH",
			Primary: []string{
				"anthropic/claude-3.7-sonnet",
				"openai/gpt-4o",
				"deepseek/deepseek-r1",
			},
			Fallback: []string{
				"x-ai/grok-4",
				"google/gemini-2.0-flash-thinking-exp:free",
				"meta-llama/llama-4-maverick",
			},
		},
	}
}

// NeutralPreference is the fixed preference order used to pick the R3
// synthesis model from the ACTIVE list. The first preferred model found
// in the ACTIVE list wins; otherwise ACTIVE[0] is used.
var NeutralPreference = []string{
	"openai/gpt-4o-mini",
	"anthropic/claude-3.7-sonnet",
	"openai/gpt-4o",
	"meta-llama/llama-3.3-70b-instruct",
}
