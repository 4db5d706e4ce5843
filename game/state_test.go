package game

import (
	"math"
	"testing"
)

func TestKnockbackDirIsUnit(t *testing.T) {
	d := KnockbackDir(Vec3{X: 1, Z: 1}, Vec3{X: 4, Z: 5})
	if math.Abs(d.Len()-1) > 1e-9 {
		t.Fatalf("knockback length = %f, want 1", d.Len())
	}
	if math.Abs(d.X-0.6) > 1e-9 || math.Abs(d.Z-0.8) > 1e-9 {
		t.Fatalf("knockback = %+v, want (0.6,0,0.8)", d)
	}
	if z := KnockbackDir(Vec3{X: 2}, Vec3{X: 2}); z != (Vec3{}) {
		t.Fatalf("coincident bodies should give zero direction, got %+v", z)
	}
}

func TestApplyKnockbackIsAsymmetric(t *testing.T) {
	self, other := ApplyKnockback(Vec3{X: 1}, Vec3{X: 2}, Vec3{X: 1})
	if self != (Vec3{X: 0.5}) {
		t.Fatalf("self = %+v, want x=0.5", self)
	}
	if other != (Vec3{X: 3}) {
		t.Fatalf("other = %+v, want x=3", other)
	}
}

func TestSpawnAndColorByIdentity(t *testing.T) {
	if SpawnFor(0) != Player1Spawn || SpawnFor(1) != Player2Spawn {
		t.Fatalf("spawn points not keyed by identity")
	}
	if ColorFor(0) != Player1Color || ColorFor(1) != Player2Color {
		t.Fatalf("colors not keyed by identity")
	}
	if Player1Spawn.Z != GridLength-GridOffset.Z || Player2Spawn.X != GridWidth-GridOffset.X {
		t.Fatalf("spawn points not on opposite corners: %+v %+v", Player1Spawn, Player2Spawn)
	}
}
