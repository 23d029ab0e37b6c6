package ai

// ModelInfo is what the enrichment layer needs to know about a model.
type ModelInfo struct {
	Name          string
	ContextTokens int     // approximate context window
	InputPerK     float64 // USD per 1K input tokens
	OutputPerK    float64 // USD per 1K output tokens
}

var models = map[string]ModelInfo{
	"openai/gpt-4o-mini":               {Name: "openai/gpt-4o-mini", ContextTokens: 128000, InputPerK: 0.0006, OutputPerK: 0.0024},
	"anthropic/claude-3-haiku":         {Name: "anthropic/claude-3-haiku", ContextTokens: 200000, InputPerK: 0.00025, OutputPerK: 0.00125},
	"google/gemini-1.5-flash":          {Name: "google/gemini-1.5-flash", ContextTokens: 1000000, InputPerK: 0.0002, OutputPerK: 0.0008},
	"meta-llama/llama-3.1-8b-instruct": {Name: "meta-llama/llama-3.1-8b-instruct", ContextTokens: 131072},
	"llama3:latest":                    {Name: "llama3:latest", ContextTokens: 8192},
	"llama3.1:8b-instruct":             {Name: "llama3.1:8b-instruct", ContextTokens: 8192},
	"mistral:7b-instruct":              {Name: "mistral:7b-instruct", ContextTokens: 8192},
	"phi3:mini-4k-instruct":            {Name: "phi3:mini-4k-instruct", ContextTokens: 4096},
}

// defaultContextTokens is assumed for models missing from the catalog.
const defaultContextTokens = 4096

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	if provider == ProviderOllama {
		return "llama3:latest"
	}
	return "openai/gpt-4o-mini"
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// PromptBudget is how many tokens a prompt may use so that maxOutput still
// fits in the model's context window.
func PromptBudget(model string, maxOutput int) int {
	ctx := defaultContextTokens
	if mi, ok := LookupModel(model); ok && mi.ContextTokens > 0 {
		ctx = mi.ContextTokens
	}
	budget := ctx - maxOutput
	if budget < 256 {
		budget = 256
	}
	return budget
}

// EstimateCostUSD prices a call. Unknown models return ok=false.
func EstimateCostUSD(model string, promptTokens, completionTokens int) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	return float64(promptTokens)/1000*mi.InputPerK + float64(completionTokens)/1000*mi.OutputPerK, true
}
