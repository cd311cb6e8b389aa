package process

// Curated keyword lists driving tag extraction and relevance scoring.
// Matching is case-insensitive substring search over title+description, so
// entries are lowercase and kept long enough not to hide inside ordinary
// words. Order matters: tags are extracted in list order, high-value terms
// first.

// highValueKeywords are the primary AI terms. Each match adds to relevance.
var highValueKeywords = []string{
	"artificial intelligence",
	"machine learning",
	"deep learning",
	"neural network",
	"large language model",
	"generative ai",
	"foundation model",
	"transformer",
	"diffusion model",
	"reinforcement learning",
	"computer vision",
	"natural language processing",
	"multimodal",
	"fine-tuning",
	"prompt engineering",
	"ai safety",
	"ai agent",
	"chatbot",
	"open source ai",
	"benchmark",
}

// companyNames carry a higher per-match weight than generic terms.
var companyNames = []string{
	"openai",
	"anthropic",
	"deepmind",
	"google ai",
	"meta ai",
	"microsoft",
	"nvidia",
	"hugging face",
	"mistral",
	"cohere",
	"stability ai",
	"perplexity",
	"midjourney",
}

// techTerms contribute tags but no score.
var techTerms = []string{
	"pytorch",
	"tensorflow",
	"cuda",
	"onnx",
	"langchain",
	"vector database",
	"embedding",
	"inference",
	"gpu",
	"tpu",
	"open weights",
	"robotics",
}

// tagKeywords is the full scan order for tag extraction.
var tagKeywords = func() []string {
	out := make([]string, 0, len(highValueKeywords)+len(companyNames)+len(techTerms))
	out = append(out, highValueKeywords...)
	out = append(out, companyNames...)
	out = append(out, techTerms...)
	return out
}()
