package game

// Bucket is the coarse proximity hint shown for a clicked tile.
type Bucket uint8

const (
	BucketHit Bucket = iota
	BucketVeryClose
	BucketClose
	BucketFar
)

func BucketFor(distance int) Bucket {
	switch {
	case distance <= 0:
		return BucketHit
	case distance == 1:
		return BucketVeryClose
	case distance <= 3:
		return BucketClose
	default:
		return BucketFar
	}
}

func (b Bucket) String() string {
	switch b {
	case BucketHit:
		return "hit"
	case BucketVeryClose:
		return "very_close"
	case BucketClose:
		return "close"
	default:
		return "far"
	}
}

func ParseBucket(s string) (Bucket, bool) {
	switch s {
	case "hit":
		return BucketHit, true
	case "very_close":
		return BucketVeryClose, true
	case "close":
		return BucketClose, true
	case "far":
		return BucketFar, true
	}
	return BucketFar, false
}

// Color is the tile pulse color of the bucket.
func (b Bucket) Color() Color {
	switch b {
	case BucketHit:
		return TileGreen
	case BucketVeryClose:
		return TileYellow
	case BucketClose:
		return TileOrange
	default:
		return TileRed
	}
}
