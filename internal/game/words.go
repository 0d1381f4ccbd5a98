package game

import (
	"math/rand"

	"github.com/sketchswap/server/logger"
)

// DefaultCorpus is the static word pool every room draws from.
var DefaultCorpus = []string{
	// Animals
	"cat", "dog", "fish", "bird", "elephant", "lion", "tiger", "bear", "horse", "cow",
	"pig", "sheep", "goat", "chicken", "duck", "rabbit", "mouse", "frog", "snake", "turtle",
	"monkey", "zebra", "giraffe", "hippo", "rhino", "kangaroo", "panda", "koala", "owl", "eagle",

	// Food
	"pizza", "burger", "cake", "cookie", "bread", "cheese", "apple", "banana", "orange", "grape",
	"strawberry", "watermelon", "carrot", "broccoli", "tomato", "potato", "corn", "rice", "pasta", "salad",
	"sandwich", "soup", "ice cream", "candy", "chocolate", "coffee", "tea", "milk", "juice", "water",

	// Objects
	"chair", "table", "bed", "door", "window", "lamp", "book", "pen", "pencil", "paper",
	"computer", "phone", "car", "bike", "plane", "train", "boat", "house", "tree", "flower",
	"clock", "mirror", "umbrella", "shoe", "hat", "shirt", "pants", "dress", "bag", "key",

	// Activities
	"running", "jumping", "swimming", "dancing", "singing", "reading", "writing", "drawing", "cooking", "sleeping",
	"playing", "walking", "driving", "flying", "sailing", "climbing", "fishing", "gardening", "shopping", "cleaning",

	// Nature
	"sun", "moon", "star", "cloud", "rain", "snow", "wind", "ocean", "river", "mountain",
	"forest", "desert", "island", "beach", "volcano", "rainbow", "lightning", "earthquake", "tornado", "hurricane",

	// Simple concepts
	"happy", "sad", "angry", "scared", "excited", "tired", "hot", "cold", "big", "small",
	"fast", "slow", "loud", "quiet", "light", "dark", "clean", "dirty", "new", "old",

	// Sports
	"football", "basketball", "tennis", "golf", "baseball", "soccer", "hockey", "boxing", "wrestling", "cycling",

	// Professions
	"doctor", "teacher", "police", "firefighter", "chef", "artist", "musician", "pilot", "sailor", "farmer",
}

// Supply hands out words for drawing rounds. A pick excludes words the
// player has already drawn in this room and words already taken by
// another player this round, relaxing those exclusions in order when the
// corpus runs dry.
type Supply struct {
	corpus []string
}

func NewSupply(corpus []string) *Supply {
	return &Supply{corpus: corpus}
}

func (s *Supply) Size() int {
	return len(s.corpus)
}

// Pick returns one word uniformly at random from corpus − used − taken.
// If that set is empty the per-player history exclusion is dropped; if
// the set is still empty the raw corpus is used, which can hand a player
// a word they already drew. Both fallbacks are logged.
func (s *Supply) Pick(used, taken map[string]bool) string {
	candidates := s.filter(func(w string) bool {
		return !used[w] && !taken[w]
	})

	if len(candidates) == 0 {
		logger.Warn("word supply: player exhausted their unique words, relaxing to round-unique words")
		candidates = s.filter(func(w string) bool { return !taken[w] })
	}

	if len(candidates) == 0 {
		// Only reachable with more players than corpus words.
		logger.Error("word supply: no round-unique words left, falling back to full corpus")
		candidates = s.corpus
	}

	return candidates[rand.Intn(len(candidates))]
}

func (s *Supply) filter(keep func(string) bool) []string {
	out := make([]string, 0, len(s.corpus))
	for _, w := range s.corpus {
		if keep(w) {
			out = append(out, w)
		}
	}
	return out
}
