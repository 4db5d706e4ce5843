package game

// KnockbackDir is the unit vector pointing from self toward other.
func KnockbackDir(self, other Vec3) Vec3 {
	return other.Sub(self).Normalize()
}

// ApplyKnockback pushes other along dir and self back by half of it.
func ApplyKnockback(self, other, dir Vec3) (Vec3, Vec3) {
	return self.Sub(dir.Scale(0.5)), other.Add(dir)
}
