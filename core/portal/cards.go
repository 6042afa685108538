package portal

import "github.com/mathmaster/cbcportal/core/catalog"

const cardBackFallback = "Check your lesson content for details."

// Card is one study card: a question on the front, its answer on the back.
type Card struct {
	Front string
	Back  string
}

// BuildCards turns a topic's question lessons into study cards, preserving
// lesson order. Lessons of other kinds are skipped; a question without a
// recorded answer points back to the lesson instead.
func BuildCards(lessons []catalog.Lesson) []Card {
	var cards []Card
	for _, les := range lessons {
		if les.Kind != catalog.LessonQuestion {
			continue
		}
		back := les.CorrectAnswer
		if back == "" {
			back = cardBackFallback
		}
		cards = append(cards, Card{Front: les.Content, Back: back})
	}
	return cards
}
