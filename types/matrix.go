package types

import "github.com/go-gl/mathgl/mgl32"

// Matrices are backed by mathgl; they are stored in column-major order.
type Mat4 = mgl32.Mat4

// Create an identity matrix.
func Ident4() Mat4 {
	return mgl32.Ident4()
}

// Create a translation matrix.
func Translate4(t Vec3) Mat4 {
	return mgl32.Translate3D(t[0], t[1], t[2])
}

// Create a scale matrix.
func Scale4(s Vec3) Mat4 {
	return mgl32.Scale3D(s[0], s[1], s[2])
}

// Create a rotation matrix from yaw, pitch and roll angles (radians) around
// the X, Y and Z axis respectively.
func Rotate4(angles Vec3) Mat4 {
	yaw := mgl32.QuatRotate(angles[0], mgl32.Vec3{1, 0, 0})
	pitch := mgl32.QuatRotate(angles[1], mgl32.Vec3{0, 1, 0})
	roll := mgl32.QuatRotate(angles[2], mgl32.Vec3{0, 0, 1})
	return roll.Mul(pitch.Mul(yaw)).Normalize().Mat4()
}

// Transform a point by m.
func TransformPoint(m Mat4, p Vec3) Vec3 {
	out := m.Mul4x1(mgl32.Vec4{p[0], p[1], p[2], 1})
	return Vec3{out[0], out[1], out[2]}
}

// Rotate v by angle radians around axis. The axis must be normalized.
func RotateAroundAxis(v, axis Vec3, angle float32) Vec3 {
	return Vec3(mgl32.QuatRotate(angle, mgl32.Vec3(axis)).Rotate(mgl32.Vec3(v)))
}
