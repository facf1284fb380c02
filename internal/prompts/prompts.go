package prompts

// DefaultLevel is used when a request carries no level or one outside the table.
const DefaultLevel = 3

const (
	MinLevel = 1
	MaxLevel = 5
)

var table = map[int]string{
	1: "Subtly enhance the image. Focus on minor adjustments like lighting, contrast, and sharpness. Keep the original subject and composition.",
	2: "Improve the image with noticeable enhancements. Adjust colors to be more vibrant and improve details. The overall scene should remain the same.",
	3: "Apply creative filters and effects. The image should be clearly transformed but the original subject should be recognizable.",
	4: "Reimagine the image with a different style. The core subject might be the same, but the artistic interpretation should be significantly different (e.g., painterly, abstract).",
	5: "Generate a completely new and highly creative image based on the input. The original image should serve as a loose inspiration for a fantastical or surreal scene.",
}

var names = map[int]string{
	1: "subtle touch-up",
	2: "vibrant enhancement",
	3: "creative filter",
	4: "stylistic reinterpretation",
	5: "fantastical reimagining",
}

// Known reports whether level has its own prompt.
func Known(level int) bool {
	_, ok := table[level]
	return ok
}

// ForLevel returns the prompt for level, falling back to DefaultLevel.
func ForLevel(level int) string {
	if p, ok := table[level]; ok {
		return p
	}
	return table[DefaultLevel]
}

// Name is a short human label for level.
func Name(level int) string {
	if n, ok := names[level]; ok {
		return n
	}
	return names[DefaultLevel]
}
