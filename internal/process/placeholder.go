package process

// placeholderImages backfills articles whose source provided no image,
// keyed by category.
var placeholderImages = map[string]string{
	"research":  "/images/placeholders/research.svg",
	"industry":  "/images/placeholders/industry.svg",
	"labs":      "/images/placeholders/labs.svg",
	"community": "/images/placeholders/community.svg",
	"tools":     "/images/placeholders/tools.svg",
}

const defaultPlaceholder = "/images/placeholders/article.svg"

func placeholderImage(category string) string {
	if img, ok := placeholderImages[category]; ok {
		return img
	}
	return defaultPlaceholder
}
