package domain

// stopWordList holds common function words excluded from frequency counting.
// Contractions never survive normalization (the apostrophe becomes a
// separator) but are kept so the set can be used on raw lowercase words too.
var stopWordList = []string{
	// Articles and conjunctions
	"a", "an", "the", "and", "or", "but", "if", "then", "else", "nor",
	"as", "so", "than",

	// Prepositions
	"at", "by", "for", "with", "about", "against", "between", "into",
	"through", "during", "before", "after", "above", "below", "to", "from",
	"up", "down", "in", "out", "on", "off", "over", "under", "of",

	// Adverbs and determiners
	"again", "further", "once", "here", "there", "when", "where", "why",
	"how", "all", "any", "both", "each", "few", "more", "most", "other",
	"some", "such", "no", "not", "only", "own", "same", "too", "very",
	"just", "now",

	// Pronouns
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you",
	"your", "yours", "yourself", "yourselves", "he", "him", "his", "himself",
	"she", "her", "hers", "herself", "it", "its", "itself", "they", "them",
	"their", "theirs", "themselves", "what", "which", "who", "whom", "this",
	"that", "these", "those",

	// Auxiliary verbs
	"am", "is", "are", "was", "were", "be", "been", "being", "have", "has",
	"had", "having", "do", "does", "did", "doing", "would", "should",
	"could", "ought", "can", "will", "cannot",

	// Contraction fragments
	"s", "t", "don",

	// Contractions
	"i'm", "you're", "he's", "she's", "it's", "we're", "they're", "i've",
	"you've", "we've", "they've", "i'd", "you'd", "he'd", "she'd", "we'd",
	"they'd", "i'll", "you'll", "he'll", "she'll", "we'll", "they'll",
	"isn't", "aren't", "wasn't", "weren't", "hasn't", "haven't", "hadn't",
	"doesn't", "don't", "didn't", "won't", "wouldn't", "shan't",
	"shouldn't", "can't", "couldn't", "mustn't", "let's", "that's",
	"who's", "what's", "here's", "there's", "when's", "where's", "why's",
	"how's",

	// Filler
	"get", "got", "gets",
}

var stopWords = func() map[string]struct{} {
	set := make(map[string]struct{}, len(stopWordList))
	for _, w := range stopWordList {
		set[w] = struct{}{}
	}
	return set
}()

// IsStopWord reports whether the lowercase word is excluded from counting
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}
