package types

import "fmt"

// RankBucket maps a 1-based match position to the coarse categorical label
// used in reports. Position 0 (or negative) means the expected item never
// appeared in the result list.
func RankBucket(position int) string {
	switch {
	case position <= 0:
		return "Not Found"
	case position <= 5:
		return "Top 1-5"
	case position <= 10:
		return "Top 6-10"
	case position <= 20:
		return "Top 11-20"
	case position <= 30:
		return "Top 21-30"
	case position <= 50:
		return "Top 31-50"
	default:
		return fmt.Sprintf("Below Top 50 (Position %d)", position)
	}
}
