package bracket

import "strconv"

// roundLabels are indexed from the end: the last entry names the final.
var roundLabels = [...]string{"16강", "8강", "4강", "준결승", "결승"}

// RoundName labels round index of total rounds, counting back from the final.
// Rounds further out than the label table fall back to a numbered label.
func RoundName(index, total int) string {
	fromEnd := total - 1 - index
	if index < 0 || fromEnd < 0 || fromEnd >= len(roundLabels) {
		return "라운드 " + strconv.Itoa(index+1)
	}
	return roundLabels[len(roundLabels)-1-fromEnd]
}
