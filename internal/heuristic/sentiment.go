package heuristic

// Fixed sentiment lexicons. Scoring is a plain whole-word count against
// these lists; it makes no claim of linguistic soundness.
var positiveWords = []string{
	"best", "great", "love", "excellent", "amazing", "awesome",
	"fantastic", "good", "helpful", "recommended", "top", "profitable",
	"easy", "success", "win", "popular", "growing", "trusted",
}

var negativeWords = []string{
	"bad", "worst", "hate", "terrible", "awful", "scam",
	"poor", "broken", "difficult", "expensive", "fail", "loss",
	"problem", "useless", "spam", "risky", "declining", "disappointing",
}

// Sentiment scores text in [-1, 1] as (pos-neg)/(pos+neg) over whole-word
// lexicon matches. Text matching neither list scores exactly 0.
func Sentiment(text string) float64 {
	var pos, neg int
	for _, tok := range Tokenize(text) {
		if inList(tok, positiveWords) {
			pos++
		}
		if inList(tok, negativeWords) {
			neg++
		}
	}
	if pos+neg == 0 {
		return 0
	}
	return float64(pos-neg) / float64(pos+neg)
}

func inList(word string, list []string) bool {
	for _, w := range list {
		if w == word {
			return true
		}
	}
	return false
}
