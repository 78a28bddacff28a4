// Package library holds the closed per-library tag vocabularies and the
// matching logic that maps free-text suggestions onto configured forum tags.
package library

import (
	"strings"

	"github.com/curiobot/curio/internal/curio"
)

// Tag is one entry of a library vocabulary: a display name plus the synonym
// strings it matches against. Vocabularies are static and never mutated at
// runtime.
type Tag struct {
	Name     string
	Synonyms []string
}

var fictionTags = []Tag{
	{Name: "science-fiction", Synonyms: []string{"science fiction", "sci-fi", "scifi", "space opera", "cyberpunk"}},
	{Name: "fantasy", Synonyms: []string{"epic fantasy", "high fantasy", "sword and sorcery"}},
	{Name: "literary-fiction", Synonyms: []string{"literary", "litfic"}},
	{Name: "mystery", Synonyms: []string{"whodunit", "detective"}},
	{Name: "thriller", Synonyms: []string{"suspense", "spy"}},
	{Name: "horror", Synonyms: []string{"gothic", "supernatural"}},
	{Name: "historical-fiction", Synonyms: []string{"historical", "period fiction"}},
	{Name: "romance", Synonyms: []string{"love story", "romcom"}},
	{Name: "short-stories", Synonyms: []string{"short fiction", "anthology", "novella"}},
	{Name: "classics", Synonyms: []string{"classic literature", "canon"}},
	{Name: "dystopian", Synonyms: []string{"dystopia", "post-apocalyptic", "apocalyptic"}},
	{Name: "adventure", Synonyms: []string{"action", "quest"}},
	{Name: "humor-satire", Synonyms: []string{"humor", "satire", "comedy", "comic novel"}},
	{Name: "magical-realism", Synonyms: []string{"magic realism"}},
	{Name: "crime-noir", Synonyms: []string{"crime", "noir", "hardboiled"}},
	{Name: "mythology-retellings", Synonyms: []string{"mythology", "myth retelling", "folklore"}},
	{Name: "young-adult", Synonyms: []string{"ya", "teen fiction", "coming of age"}},
	{Name: "graphic-novels", Synonyms: []string{"comics", "manga", "graphic novel"}},
	{Name: "speculative", Synonyms: []string{"speculative fiction", "weird fiction", "slipstream"}},
	{Name: "contemporary", Synonyms: []string{"contemporary fiction", "modern fiction"}},
}

var nonfictionTags = []Tag{
	{Name: "history", Synonyms: []string{"world history", "military history", "ancient history"}},
	{Name: "biography-memoir", Synonyms: []string{"biography", "memoir", "autobiography"}},
	{Name: "science", Synonyms: []string{"physics", "biology", "chemistry", "astronomy"}},
	{Name: "psychology", Synonyms: []string{"cognitive science", "behavioral science", "neuroscience"}},
	{Name: "philosophy", Synonyms: []string{"ethics", "stoicism", "metaphysics"}},
	{Name: "economics", Synonyms: []string{"macroeconomics", "behavioral economics", "finance theory"}},
	{Name: "politics-society", Synonyms: []string{"politics", "sociology", "society", "geopolitics"}},
	{Name: "technology", Synonyms: []string{"tech", "computing", "ai", "artificial intelligence"}},
	{Name: "nature-environment", Synonyms: []string{"nature", "environment", "climate", "ecology"}},
	{Name: "true-crime", Synonyms: []string{"crime reporting", "investigative crime"}},
	{Name: "culture-media", Synonyms: []string{"culture", "media", "art history", "music history"}},
	{Name: "health-medicine", Synonyms: []string{"medicine", "public health", "nutrition science"}},
	{Name: "business", Synonyms: []string{"management theory", "corporate history", "industry"}},
	{Name: "education", Synonyms: []string{"pedagogy", "teaching", "schools"}},
	{Name: "religion-spirituality", Synonyms: []string{"religion", "theology", "spirituality"}},
	{Name: "travel", Synonyms: []string{"travelogue", "exploration"}},
	{Name: "essays", Synonyms: []string{"essay collection", "criticism", "commentary"}},
	{Name: "current-affairs", Synonyms: []string{"news analysis", "journalism", "reportage"}},
	{Name: "mathematics", Synonyms: []string{"math", "maths", "statistics"}},
	{Name: "anthropology", Synonyms: []string{"archaeology", "ethnography", "human origins"}},
}

var practicalTags = []Tag{
	{Name: "productivity", Synonyms: []string{"time management", "getting things done", "gtd"}},
	{Name: "leadership-management", Synonyms: []string{"leadership", "management", "team building"}},
	{Name: "personal-finance", Synonyms: []string{"investing", "money", "budgeting", "retirement"}},
	{Name: "software-engineering", Synonyms: []string{"programming", "coding", "software", "devops"}},
	{Name: "career", Synonyms: []string{"job search", "interviewing", "professional growth"}},
	{Name: "communication", Synonyms: []string{"conversation", "listening", "persuasion"}},
	{Name: "habits-discipline", Synonyms: []string{"habits", "discipline", "self-control", "willpower"}},
	{Name: "decision-making", Synonyms: []string{"decisions", "judgment", "mental models"}},
	{Name: "creativity", Synonyms: []string{"creative process", "ideation", "design thinking"}},
	{Name: "entrepreneurship", Synonyms: []string{"startups", "founders", "bootstrapping"}},
	{Name: "negotiation", Synonyms: []string{"bargaining", "deal making"}},
	{Name: "writing-craft", Synonyms: []string{"writing", "copywriting", "storytelling"}},
	{Name: "learning-methods", Synonyms: []string{"learning", "study skills", "memory techniques"}},
	{Name: "health-fitness", Synonyms: []string{"fitness", "exercise", "sleep", "diet"}},
	{Name: "cooking", Synonyms: []string{"recipes", "baking", "culinary"}},
	{Name: "diy-making", Synonyms: []string{"diy", "woodworking", "home improvement", "maker"}},
	{Name: "marketing-sales", Synonyms: []string{"marketing", "sales", "growth"}},
	{Name: "parenting-relationships", Synonyms: []string{"parenting", "relationships", "family"}},
	{Name: "mindfulness", Synonyms: []string{"meditation", "stress reduction", "calm"}},
	{Name: "public-speaking", Synonyms: []string{"presentations", "speeches", "talks"}},
}

var vocabularies = map[curio.Library][]Tag{
	curio.LibraryFiction:    fictionTags,
	curio.LibraryNonfiction: nonfictionTags,
	curio.LibraryPractical:  practicalTags,
}

// Libraries returns the fixed set of libraries in a stable order.
func Libraries() []curio.Library {
	return []curio.Library{curio.LibraryFiction, curio.LibraryNonfiction, curio.LibraryPractical}
}

// Tags returns the vocabulary for a library, or nil for an unknown library.
func Tags(lib curio.Library) []Tag {
	return vocabularies[lib]
}

// TagNames returns the display names of a library's vocabulary.
func TagNames(lib curio.Library) []string {
	tags := vocabularies[lib]
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names
}

// Contains reports whether name is a tag of the library's vocabulary.
func Contains(lib curio.Library, name string) bool {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, t := range vocabularies[lib] {
		if strings.ToLower(t.Name) == needle {
			return true
		}
	}
	return false
}

// Valid reports whether lib is one of the fixed libraries.
func Valid(lib curio.Library) bool {
	_, ok := vocabularies[lib]
	return ok
}
