package ai

import "sort"

// ModelInfo describes the context window of a known model.
type ModelInfo struct {
	Name          string
	ContextTokens int
}

var models = map[string]ModelInfo{
	"meta-llama/llama-3.3-70b-instruct": {Name: "meta-llama/llama-3.3-70b-instruct", ContextTokens: 131072},
	"meta-llama/llama-3.1-8b-instruct":  {Name: "meta-llama/llama-3.1-8b-instruct", ContextTokens: 131072},
	"openai/gpt-4o-mini":                {Name: "openai/gpt-4o-mini", ContextTokens: 128000},
	"llama-3.3-70b-versatile":           {Name: "llama-3.3-70b-versatile", ContextTokens: 131072},
	"llama-3.1-8b-instant":              {Name: "llama-3.1-8b-instant", ContextTokens: 131072},
	"llama3:latest":                     {Name: "llama3:latest", ContextTokens: 8192},
	"llama3.1:8b-instruct":              {Name: "llama3.1:8b-instruct", ContextTokens: 8192},
	"phi3:mini-4k-instruct":             {Name: "phi3:mini-4k-instruct", ContextTokens: 4096},
}

var defaultModels = map[string]string{
	ProviderOpenRouter: "meta-llama/llama-3.3-70b-instruct",
	ProviderGroq:       "llama-3.3-70b-versatile",
	ProviderOllama:     "llama3:latest",
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// Catalog returns the known models sorted by name.
func Catalog() []ModelInfo {
	out := make([]ModelInfo, 0, len(models))
	for _, mi := range models {
		out = append(out, mi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	return defaultModels[provider]
}

// PromptBudget returns the prompt token budget for model: its context window
// minus the completion reservation, capped at limit. Unknown models get limit.
func PromptBudget(model string, completion, limit int) int {
	mi, ok := LookupModel(model)
	if !ok || mi.ContextTokens <= 0 {
		return limit
	}
	budget := mi.ContextTokens - completion
	if budget <= 0 {
		return limit
	}
	if limit > 0 && budget > limit {
		return limit
	}
	return budget
}
