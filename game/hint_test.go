package game

import "testing"

func TestBucketForBoundaries(t *testing.T) {
	cases := []struct {
		distance int
		want     Bucket
	}{
		{0, BucketHit},
		{1, BucketVeryClose},
		{2, BucketClose},
		{3, BucketClose},
		{4, BucketFar},
		{5, BucketFar},
		{10, BucketFar},
	}
	for _, c := range cases {
		if got := BucketFor(c.distance); got != c.want {
			t.Fatalf("BucketFor(%d) = %v, want %v", c.distance, got, c.want)
		}
	}
}

func TestBucketNamesParse(t *testing.T) {
	for _, b := range []Bucket{BucketHit, BucketVeryClose, BucketClose, BucketFar} {
		got, ok := ParseBucket(b.String())
		if !ok || got != b {
			t.Fatalf("ParseBucket(%q) = %v,%v", b.String(), got, ok)
		}
	}
	if _, ok := ParseBucket("lukewarm"); ok {
		t.Fatalf("expected unknown bucket name to fail")
	}
}

func TestBucketColors(t *testing.T) {
	if BucketHit.Color() != TileGreen || BucketVeryClose.Color() != TileYellow ||
		BucketClose.Color() != TileOrange || BucketFar.Color() != TileRed {
		t.Fatalf("bucket colors do not match tile palette")
	}
}
