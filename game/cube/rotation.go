package cube

import (
	"math"

	"github.com/westphae/quaternion"
)

// axisQuaternion returns the rotation by angle around a unit axis
func axisQuaternion(angle float64, axis Vec3) quaternion.Quaternion {
	s, c := math.Sincos(angle / 2)
	return quaternion.Quaternion{W: c, X: axis.X * s, Y: axis.Y * s, Z: axis.Z * s}
}

// Quaternion converts an XYZ-ordered Euler rotation into a quaternion
func (e Euler) Quaternion() quaternion.Quaternion {
	return quaternion.Prod(
		axisQuaternion(e.X, Vec3{X: 1}),
		axisQuaternion(e.Y, Vec3{Y: 1}),
		axisQuaternion(e.Z, Vec3{Z: 1}),
	)
}

// Rotate applies the rotation to v
func (e Euler) Rotate(v Vec3) Vec3 {
	return rotateVec(e.Quaternion(), v)
}

func rotateVec(q quaternion.Quaternion, v Vec3) Vec3 {
	r := q.RotateVec3(quaternion.Vec3{X: v.X, Y: v.Y, Z: v.Z})
	return Vec3{X: r.X, Y: r.Y, Z: r.Z}
}

// FaceScores returns the dot product of every rotated face normal with the viewer axis
func FaceScores(rot Euler) [FaceCount]float64 {
	var scores [FaceCount]float64
	q := rot.Quaternion()
	for i, n := range FaceNormals {
		scores[i] = rotateVec(q, n).Dot(ViewerAxis)
	}
	return scores
}

// FrontFace returns the face pointing most directly at the viewer.
// Ties resolve to the lowest face index.
func FrontFace(rot Euler) (Face, float64) {
	return bestFace(FaceScores(rot))
}

func bestFace(scores [FaceCount]float64) (Face, float64) {
	best, bestScore := NoFace, math.Inf(-1)
	for i, s := range scores {
		if s > bestScore {
			best, bestScore = Face(i), s
		}
	}
	return best, bestScore
}

// canonicalTargets are the rotations that put each face toward the viewer
var canonicalTargets = [FaceCount]Euler{
	Right:  {Y: -math.Pi / 2},
	Left:   {Y: math.Pi / 2},
	Top:    {X: math.Pi / 2},
	Bottom: {X: -math.Pi / 2},
	Front:  {},
	Back:   {Y: math.Pi},
}

// CanonicalTarget returns the reference rotation for face
func CanonicalTarget(face Face) (Euler, error) {
	if !face.Valid() {
		return Euler{}, ErrInvalidFace
	}
	return canonicalTargets[face], nil
}

// NearestAngle returns target shifted by a whole number of turns so it lies
// closest to current. Exact half-turn ties resolve toward the larger angle.
func NearestAngle(current, target float64) float64 {
	turns := math.Floor((current-target)/(2*math.Pi) + 0.5)
	return target + turns*2*math.Pi
}

// SnapTarget returns the canonical rotation for face expressed per axis
// nearest to the current accumulated rotation
func SnapTarget(current Euler, face Face) (Euler, error) {
	t, err := CanonicalTarget(face)
	if err != nil {
		return Euler{}, err
	}
	return Euler{
		X: NearestAngle(current.X, t.X),
		Y: NearestAngle(current.Y, t.Y),
		Z: NearestAngle(current.Z, t.Z),
	}, nil
}
